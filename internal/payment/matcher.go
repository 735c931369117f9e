package payment

import (
	"github.com/shopspring/decimal"
	"github.com/tr8energy/energy-bot/internal/trongrid"
)

// epsilon absorbs floating-point rounding picked up by prices on their way
// from the market API: 1e-8 TRX.
var epsilon = decimal.New(1, -8)

// Satisfies reports whether any single transfer to receiverHex covers the
// threshold. Destination matching is case-insensitive and tolerates an
// optional 0x prefix. Amounts are never accumulated across transfers, so
// partial payments split over several transactions do not satisfy an
// invoice.
func Satisfies(transfers []trongrid.Transfer, receiverHex string, threshold decimal.Decimal) bool {
	receiverHex = trongrid.NormalizeHex(receiverHex)
	if receiverHex == "" {
		return false
	}

	for _, tr := range transfers {
		if trongrid.NormalizeHex(tr.To) != receiverHex {
			continue
		}
		if tr.AmountTRX().Add(epsilon).GreaterThanOrEqual(threshold) {
			return true
		}
	}
	return false
}
