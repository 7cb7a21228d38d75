package pkg

import "golang.org/x/crypto/bcrypt"

// bcrypt cost 14 keeps a single hash around half a second on current
// hardware, slow enough for stored credentials.
const bcryptCost = 14

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return BytesToString(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
