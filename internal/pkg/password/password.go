package password

import "golang.org/x/crypto/bcrypt"

// Hash bcrypts an account password at the default cost. Hashes go into
// users.password_hash and are never logged or returned by the API.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
