package middleware

// Context keys used by middleware and handlers.
const (
	// UserIDKey is the gin context key for the authenticated user's ID.
	UserIDKey = "user_id"
	// UserEmailKey is the gin context key for the authenticated user's email.
	UserEmailKey = "user_email"
	// UserDisplayNameKey is the gin context key for the display name taken
	// from the token's user_metadata claim.
	UserDisplayNameKey = "user_display_name"
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"
)
