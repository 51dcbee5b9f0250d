package models

import "time"

// User is an internal user record, created on first authenticated contact
// and keyed by the identity provider's subject id.
type User struct {
	ID        int        `db:"id" json:"id"`
	Subject   string     `db:"subject" json:"-"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	AvatarURL string     `db:"avatar_url" json:"avatar_url"`
	IsOnline  bool       `db:"is_online" json:"is_online"`
	LastSeen  *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Profile is the user view exposed to other participants.
type Profile struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	IsOnline  bool   `json:"is_online"`
}

// ProfileOf projects a user into its public profile.
func ProfileOf(u User) Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		IsOnline:  u.IsOnline,
	}
}
