package middleware

// App roles, read from the token's app_metadata.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Context keys set by JWTAuth and the interviewer handlers.
const (
	CtxUserID    = "user_id"
	CtxUserName  = "user_name"
	CtxUserEmail = "user_email"
	CtxRole      = "role"
	CtxSessionID = "session_id"
	CtxRequestID = "request_id"
)
