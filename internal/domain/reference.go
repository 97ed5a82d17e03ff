package domain

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceLength   = 6

	// MaxReferenceAttempts bounds retries on reference collisions.
	MaxReferenceAttempts = 10

	gatewayRefPrefix = "NAIA-"
)

// NewBookingReference returns a six character reference without the
// look-alike characters O, 0, I and 1.
func NewBookingReference() (string, error) {
	var sb strings.Builder
	sb.Grow(referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < referenceLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referenceAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NewGatewayReference returns NAIA-<12 upper hex>.
func NewGatewayReference() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return gatewayRefPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func ValidBookingReference(ref string) bool {
	if len(ref) != referenceLength {
		return false
	}
	for i := 0; i < len(ref); i++ {
		if !strings.ContainsRune(referenceAlphabet, rune(ref[i])) {
			return false
		}
	}
	return true
}
