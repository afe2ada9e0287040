package passwords

import "golang.org/x/crypto/bcrypt"

// Hash returns a salted bcrypt digest of the plaintext. The salt is random per
// call, so two hashes of the same password differ.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored digest. A malformed digest
// is treated the same as a mismatch; this never returns an error.
func Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
