package params

import (
	"fmt"
	"math/big"
	"strings"
)

// These are the multipliers for tos denominations.
// Example: To get the wei value of an amount in 'gwei', use
//
//	new(big.Int).Mul(value, big.NewInt(params.GWei))
const (
	Wei  = 1
	GWei = 1e9
	TOS  = 1e18
)

// FormatTOS renders a wei amount in TOS without trailing zero decimals,
// e.g. 10^16 renders as "0.01".
func FormatTOS(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	var (
		abs       = new(big.Int).Abs(wei)
		whole, fr = new(big.Int).QuoRem(abs, big.NewInt(TOS), new(big.Int))
		sign      = ""
	)
	if wei.Sign() < 0 {
		sign = "-"
	}
	if fr.Sign() == 0 {
		return sign + whole.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", fr.String()), "0")
	return fmt.Sprintf("%s%s.%s", sign, whole, frac)
}

// ParseTOS parses a decimal TOS amount such as "0.01" into wei.
func ParseTOS(amount string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid TOS amount %q", amount)
	}
	r.Mul(r, new(big.Rat).SetInt64(TOS))
	if !r.IsInt() {
		return nil, fmt.Errorf("TOS amount %q has more than 18 decimals", amount)
	}
	return new(big.Int).Set(r.Num()), nil
}
