package constants

// HTTP Header Names
const (
	HeaderContentType      = "Content-Type"
	HeaderAuthorization    = "Authorization"
	HeaderUserAgent        = "User-Agent"
	HeaderXRequestID       = "X-Request-ID"
	HeaderXRateLimitLimit  = "X-RateLimit-Limit"
	HeaderXRateLimitRemain = "X-RateLimit-Remaining"
	HeaderXRateLimitReset  = "X-RateLimit-Reset"
	HeaderRetryAfter       = "Retry-After"
	BearerScheme           = "Bearer"
)

// Common HTTP Error Messages
const (
	MsgAuthRequired     = "Authentication required"
	MsgInvalidToken     = "Invalid token"
	MsgTokenExpired     = "Token expired"
	MsgBadRequest       = "Invalid request"
	MsgValidationFailed = "Validation failed"
	MsgInternalError    = "Internal server error"
	MsgTooManyRequests  = "Too many requests, please try again later"
	MsgTooManyLogins    = "Too many login attempts, please try again later"
	MsgTooManyRegisters = "Too many registration attempts, please try again later"
	MsgTooManyQuizzes   = "Too many quiz submissions, please slow down"
	MsgNotFound         = "Resource not found"
)

// HTTP Success Messages
const (
	MsgRegistered     = "Registration successful"
	MsgLoggedIn       = "Login successful"
	MsgLoggedOut      = "Logout successful"
	MsgLoggedOutAll   = "Logged out from all devices"
	MsgProfileUpdated = "Profile updated successfully"
	MsgProgressReset  = "Progress has been reset"
)
