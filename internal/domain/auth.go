package domain

import "time"

// Session describes an issued bearer token.
type Session struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}
