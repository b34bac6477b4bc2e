package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the stored credential hash. Callers persist the
// returned bytes as a string on the user row.
func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

// ComparePassword checks a login attempt against the stored hash; a non-nil
// error means the credentials do not match.
func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}
