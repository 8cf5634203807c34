package auth

import "crypto/subtle"

// CheckPassword reports whether candidate equals the configured secret. An
// empty secret never matches, so a missing configuration keeps the gate shut.
func CheckPassword(candidate, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1
}
