package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time numeric codes.
type Generator interface {
	// Generate returns a fresh code made only of ASCII digits.
	Generate() (string, error)
}

// Numeric draws codes uniformly from [10^(n-1), 10^n - 1], so a code never
// starts with zero and always has exactly n digits.
type Numeric struct {
	digits otp.Digits
	low    *big.Int
	span   *big.Int
	random io.Reader
}

// NewNumeric constructs a Numeric generator.
//
// If digits is not 6 or 8, it falls back to 6 digits.
func NewNumeric(digits otp.Digits) *Numeric {
	return newNumeric(digits, rand.Reader)
}

func newNumeric(digits otp.Digits, random io.Reader) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits.Length()-1)), nil)
	high := new(big.Int).Mul(low, big.NewInt(10))

	return &Numeric{
		digits: digits,
		low:    low,
		span:   new(big.Int).Sub(high, low),
		random: random,
	}
}

// Generate returns a code of the configured length.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.random, n.span)
	if err != nil {
		return "", err
	}

	return n.digits.Format(int32(v.Add(v, n.low).Int64())), nil
}

// Digits returns the code length.
func (n *Numeric) Digits() int {
	return n.digits.Length()
}
