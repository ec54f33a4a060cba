package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const (
	otpChars       = "0123456789"
	referenceChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// ReferencePrefix marks display codes so support staff can tell them from OTPs.
	ReferencePrefix = "RST-"
)

func GenerateSecureOTP(length int) (string, error) {
	return randomString(otpChars, length)
}

// GenerateReference returns a display code such as RST-7KQ2MX. The alphabet
// drops 0/O and 1/I so it can be read back over the phone.
func GenerateReference(length int) (string, error) {
	s, err := randomString(referenceChars, length)
	if err != nil {
		return "", err
	}
	return ReferencePrefix + s, nil
}

// HashOTP is deterministic so the stored hash can be matched inside a query filter.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func randomString(alphabet string, length int) (string, error) {
	buffer := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buffer {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buffer[i] = alphabet[n.Int64()]
	}
	return string(buffer), nil
}
