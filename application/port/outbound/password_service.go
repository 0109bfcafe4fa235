package outbound

type PasswordService interface {
	HashPassword(password string) (string, error)
	// VerifyPassword never fails loudly: a malformed digest is a mismatch.
	VerifyPassword(password, hash string) bool
}
