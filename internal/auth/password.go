package auth

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to user-chosen passwords.
const MinPasswordLength = 6

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// DefaultPassword is the initial password of an onboarded user:
// "<birth year>_<employee id>".
func DefaultPassword(dob time.Time, employeeID string) string {
	return fmt.Sprintf("%d_%s", dob.Year(), employeeID)
}
