package validator

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// ValidateID reports whether id is a canonical UUID as issued for users,
// services and grants.
func ValidateID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidateJWT only checks the compact three-segment shape.
func ValidateJWT(token string) bool {
	if token == "" {
		return false
	}

	// JWT token harus memiliki 3 bagian yang dipisahkan oleh titik
	parts := strings.Split(token, ".")
	return len(parts) == 3
}

// ParseQueryInt returns def for an empty value and ok=false for anything
// that is not a non-negative integer.
func ParseQueryInt(value string, def int) (int, bool) {
	if value == "" {
		return def, true
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
