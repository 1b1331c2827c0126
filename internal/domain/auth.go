package domain

// Session is the token set handed to a caller after login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int
}

// LoginResult bundles the authenticated staff member with its session.
type LoginResult struct {
	User    StaffRecord
	Session Session
}
