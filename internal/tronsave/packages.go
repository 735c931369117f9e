package tronsave

import (
	"context"

	"github.com/shopspring/decimal"
)

// EnergyPresets is the fixed ladder of purchasable energy amounts.
var EnergyPresets = []int64{65_000, 131_000, 262_000, 393_000, 524_000, 655_000}

// Parity prices shipped with the bot, used when the market cannot be asked.
var fallbackPricesTRX = []string{"2.21", "4.45", "8.91", "13.36", "17.82", "22.27"}

// minorToTRX converts the market's minor-unit prices to TRX.
func minorToTRX(v int64) decimal.Decimal {
	return decimal.New(v, -6)
}

// FallbackPackages returns the full preset ladder with hard-coded prices.
func FallbackPackages() []EnergyPackage {
	packages := make([]EnergyPackage, 0, len(EnergyPresets))
	for i, amount := range EnergyPresets {
		price, _ := decimal.NewFromString(fallbackPricesTRX[i])
		packages = append(packages, EnergyPackage{
			ID:           i + 1,
			EnergyAmount: amount,
			BasePriceTRX: price,
			UnitPrice:    "MEDIUM",
		})
	}
	return packages
}

// GetPackages prices the preset ladder via market estimates. A failed preset
// is skipped; with no API key, or when every estimate fails, the fallback
// ladder is returned so the purchase flow never blocks on the market.
func (c *Client) GetPackages(ctx context.Context, receiver string) []EnergyPackage {
	if c.apiKey == "" {
		c.log.Warn("tronsave API key not configured, using fallback packages")
		return FallbackPackages()
	}

	var packages []EnergyPackage
	for i, amount := range EnergyPresets {
		estimate, err := c.EstimateBuyResource(ctx, receiver, amount)
		if err != nil {
			c.log.Error("estimate package", "energy", amount, "error", err)
			continue
		}
		packages = append(packages, EnergyPackage{
			ID:           i + 1,
			EnergyAmount: amount,
			BasePriceTRX: estimate.PriceTRX,
			UnitPrice:    estimate.UnitPrice,
		})
	}

	if len(packages) == 0 {
		c.log.Warn("no packages could be estimated, using fallback packages")
		return FallbackPackages()
	}
	return packages
}
