package models

const (
	// DefaultPayment is applied when a booking is created without a payment method.
	DefaultPayment = "in-shop"

	// DefaultTokenTTL is the access token lifetime in seconds.
	DefaultTokenTTL = 60 * 60

	// DefaultLoginAttempts is the number of failed logins allowed per window.
	DefaultLoginAttempts = 5

	// DefaultLoginWindow is the login throttling window in seconds.
	DefaultLoginWindow = 15 * 60
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)
