package helpers

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt cost used for new hashes. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of plain. Inputs longer than 72 bytes
// fail with bcrypt.ErrPasswordTooLong.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the stored hash. An empty hash
// never matches.
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
