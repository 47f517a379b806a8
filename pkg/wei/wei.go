// Package wei converts between user-facing decimal ETH strings and the
// integer wei amounts the chain layer deals in.
package wei

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiPerEther is 10^18.
var WeiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var weiPerEtherDec = decimal.NewFromBigInt(big.NewInt(1), 18)

// ParseEther converts a decimal ETH string such as "0.005" into wei.
// Amounts with more than 18 decimal places are rejected rather than
// silently truncated.
func ParseEther(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}

	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing ether amount %q: %w", value, err)
	}
	if dec.IsNegative() {
		return nil, fmt.Errorf("negative ether amount %q", value)
	}

	scaled := dec.Mul(weiPerEtherDec)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has sub-wei precision", value)
	}
	return scaled.BigInt(), nil
}

// MustParseEther is ParseEther for compile-time-constant amounts.
func MustParseEther(value string) *big.Int {
	amount, err := ParseEther(value)
	if err != nil {
		panic(err)
	}
	return amount
}

// FormatEther renders a wei amount as a decimal ETH string with trailing
// zeros trimmed, matching what the storefront displays.
func FormatEther(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -18).String()
}

// Ether returns n whole ether in wei. Intended for tests and dev funding.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), WeiPerEther)
}
