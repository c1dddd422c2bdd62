package model

// Account is a single game-player identity registered under an owner.
// The owner is the chat-side user id that controls the account.
type Account struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	// LoginURL is the one-shot login reference used to establish a session.
	LoginURL string `json:"mvp_url"`
	Token    string `json:"token,omitempty"`
	Active   bool   `json:"active"`
}

// Normalize coerces a record read from disk into a complete shape. It
// reports false for records that cannot be repaired and must be dropped.
func (a *Account) Normalize() bool {
	return a.UID != ""
}
