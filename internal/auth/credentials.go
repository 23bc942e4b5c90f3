package auth

import "crypto/subtle"

// Credentials is the single username/password pair permitted to use the
// application. It is built once from configuration and never mutated.
type Credentials struct {
	Username string
	Password string
}

// Verify reports whether the submitted pair matches the configured one.
// Empty or missing fields are rejected before any comparison happens.
func (c Credentials) Verify(username, password string) bool {
	if username == "" || password == "" {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}
