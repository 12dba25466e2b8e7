package common

const (
	// LoggerKey holds a request-scoped *zap.Logger, when one is installed.
	LoggerKey = "logger"
	// FirebaseUIDKey is the context key for storing the Firebase UID
	FirebaseUIDKey = "firebaseUID"
	// AuthStateKey holds the settled auth context value for the request.
	AuthStateKey = "authState"
	// SessionKey holds the browser session resolved by the auth gate middleware.
	SessionKey = "session"
)
