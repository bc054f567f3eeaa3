package provisioning

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*"

	allChars = upperChars + lowerChars + digitChars + symbolChars

	// TemporaryPasswordLength is the length of every generated password.
	TemporaryPasswordLength = 12
)

// PasswordGenerator issues temporary passwords for new identities.
type PasswordGenerator interface {
	TemporaryPassword() (string, error)
}

// CredentialGenerator draws one character from each class, fills the rest
// from the full alphabet and permutes the result with Fisher-Yates.
type CredentialGenerator struct {
	rand io.Reader
}

func NewCredentialGenerator() *CredentialGenerator {
	return &CredentialGenerator{rand: rand.Reader}
}

func (g *CredentialGenerator) TemporaryPassword() (string, error) {
	out := make([]byte, 0, TemporaryPasswordLength)

	for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := g.pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for len(out) < TemporaryPasswordLength {
		c, err := g.pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func (g *CredentialGenerator) pick(alphabet string) (byte, error) {
	i, err := g.intn(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func (g *CredentialGenerator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random source: %w", err)
	}
	return int(v.Int64()), nil
}
