package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a bcrypt digest for storage in the users table.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword checks a plaintext candidate against a stored digest.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
