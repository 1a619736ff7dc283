package integration_test

const (
	testJWTSecret = "integration-test-secret"

	// Caller identities
	TestUserID      = 1
	TestOtherUserID = 2
	TestAdminID     = 99

	// Catalog identifiers issued by the showtime service
	TestShowtimeID      = 10
	TestOtherShowtimeID = 11
)
