package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Game codes are short enough to read out loud; the alphabet drops the
// characters that look alike (0/O, 1/I/L).
const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 6
	codeMaxAttempts = 100
)

var ErrCodeSpaceExhausted = errors.New("could not allocate a unique game code")

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
