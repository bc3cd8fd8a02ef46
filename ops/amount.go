package ops

import (
	"fmt"
	"math/big"
)

// banDecimals is the number of decimal places between a human-readable BAN
// amount and its wBAN base-unit representation, matching the wrapped
// ERC-20's 18-decimal precision.
const banDecimals = 18

// parseHumanAmount converts a human-readable decimal amount (e.g. "1.5")
// into an integer count of base units.
func parseHumanAmount(human string) (*big.Int, error) {
	f, ok := new(big.Float).SetPrec(256).SetString(human)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", human)
	}
	scale := new(big.Float).SetPrec(256).SetInt(pow10(banDecimals))
	f.Mul(f, scale)

	base, _ := f.Int(nil)
	if base.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", human)
	}
	return base, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
