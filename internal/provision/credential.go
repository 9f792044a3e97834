package provision

import (
	"crypto/rand"
	"math/big"
)

// без 0/O, 1/l/I — пароль часто диктуют по телефону
const credentialAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CredentialLength = 10

// GenerateCredential returns a random password for a portal account.
func GenerateCredential() (string, error) {
	limit := big.NewInt(int64(len(credentialAlphabet)))
	b := make([]byte, CredentialLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = credentialAlphabet[n.Int64()]
	}
	return string(b), nil
}
