package telegram

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tr8energy/energy-bot/internal/trongrid"
	"github.com/tr8energy/energy-bot/internal/tronsave"
)

// FinalPrice applies the commission markup to a base market price. Computed
// once when an invoice is created and never recomputed afterwards.
func FinalPrice(base decimal.Decimal, commissionPercent float64) decimal.Decimal {
	markup := decimal.NewFromFloat(1 + commissionPercent/100)
	return base.Mul(markup)
}

func formatPackageLabel(pkg tronsave.EnergyPackage, commissionPercent float64) string {
	final := FinalPrice(pkg.BasePriceTRX, commissionPercent)
	return fmt.Sprintf("%s ⚡ — %s TRX", formatEnergy(pkg.EnergyAmount), final.StringFixed(2))
}

func formatWalletInfo(address string, balances *trongrid.AccountBalances) string {
	return fmt.Sprintf(
		"📊 Wallet Status for %s\n\n"+
			"💰 USDT: %s\n"+
			"🔺 TRX: %s\n"+
			"📡 Bandwidth: %s\n"+
			"⚡ Energy: %s",
		address,
		balances.USDT.StringFixed(2),
		balances.TRX.StringFixed(4),
		formatEnergy(balances.Bandwidth),
		formatEnergy(balances.Energy),
	)
}

// formatEnergy renders an integer with thousands separators
func formatEnergy(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}
