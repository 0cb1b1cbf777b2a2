package constant

const (
	// DefaultUserRole is assigned to newly registered users.
	DefaultUserRole = "employee"

	// RefreshCookieName is the httpOnly cookie carrying the refresh token
	// in production mode.
	RefreshCookieName = "refresh_token"

	EnvProduction = "production"
)
