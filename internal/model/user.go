package model

import "time"

// User is an account that owns snippets.
//
// Accounts come from GitHub sign-in, so GitHubID is the external identity and
// ID is our own xid-based key (same format as Snippet.ID). A snippet saved by
// a signed-in user stores this ID in Snippet.UserID, which is what makes
// private snippets private.
//
// Email may be empty: GitHub omits it when the user hides their address.
type User struct {
	ID        string    `json:"id"`
	GitHubID  int64     `json:"githubId"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
