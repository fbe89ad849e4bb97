// Package auth implements credential verification and session tokens for the
// account ledger.
package auth

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a shared secret with bcrypt. The salt is generated per
// call and embedded in the returned hash; cost tunes the work factor.
func HashSecret(secret string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	return string(bytes), err
}

// VerifySecret checks a secret against a stored hash. The comparison happens
// inside bcrypt and is constant-time; the secret is never logged or stored.
func VerifySecret(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
