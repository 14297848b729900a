package models

// User mirrors a record of the "users" auth collection. The backend owns the
// full lifecycle; this is the shape the client reads and patches.
type User struct {
	ID     string `json:"id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	// Verified doubles as the moderation switch: banning a user clears it,
	// unbanning restores it. The backing schema has no separate
	// suspension field.
	Verified bool   `json:"verified"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`
}
