package models

// PendingRegistration is a not-yet-activated account. It is never persisted;
// its only durable form is the payload of a signed activation token, so its
// lifetime is bounded by the token expiry. PasswordHash holds the bcrypt
// digest, never the plaintext.
type PendingRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	PhoneNumber  string `json:"phone_number"`
}
