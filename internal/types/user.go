package types

// User is the authenticated account as returned by the auth and profile
// endpoints.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Nickname     *string  `json:"nickname"`
	HomeArea     *string  `json:"home_area"`
	ChildAgeBand *AgeBand `json:"child_age_band"`
}

// TokenPair is the bearer credential pair. Both values are opaque to the
// client and persist until logout or a failed refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthSession is the result of a signup or login call.
type AuthSession struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"-"`
}
