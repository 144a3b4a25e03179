package models

// User represents a registered shopper. Email is the login key but is not
// enforced unique; users are append-only and never mutated after
// registration.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"` // bcrypt hash; blanked before leaving the auth service
	Name     string `json:"name"`
}
