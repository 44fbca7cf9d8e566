package contextkeys

type contextKey string

const (
	UserIDKey     contextKey = "UserID"
	UserClaimsKey contextKey = "UserClaims"
	RequestIDKey  contextKey = "RequestID"
)

// EchoClaimsKey - ключ для c.Set/c.Get в echo.Context.
const EchoClaimsKey = "user_claims"
