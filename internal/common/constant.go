package common

// SessionCookieName is the cookie carrying the session secret. The name is
// fixed: browsers that already hold a session must keep resolving it.
const SessionCookieName = "appwrite-session"

// SessionMetadataKey is the gRPC metadata key used to pass the session
// secret to the resolver service.
const SessionMetadataKey = "appwrite-session"

// Entry points the HTTP layer redirects to.
const (
	SignInPath = "/sign-in"
	RootPath   = "/"
)
