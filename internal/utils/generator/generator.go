package generator

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const shareLinkChars = "abcdefghijklmnopqrstuvwxyz0123456789"
const shareLinkLength = 10

// GenerateUUID returns a random entity id.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShareLink returns the public lookup token for a published agent:
// 10 lowercase-alphanumeric characters (~36^10 possibilities). Uniqueness
// across agents is enforced by the store's unique index.
func GenerateShareLink() string {
	token := make([]byte, shareLinkLength)
	max := big.NewInt(int64(len(shareLinkChars)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand is the OS entropy source; failure is unrecoverable.
			panic(err)
		}
		token[i] = shareLinkChars[n.Int64()]
	}
	return string(token)
}
