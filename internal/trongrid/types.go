package trongrid

import "github.com/shopspring/decimal"

// Transfer is a single inbound TRX transfer, parsed out of an explorer
// transaction at the API boundary.
type Transfer struct {
	TxID      string
	To        string // hex form, as returned by the explorer
	AmountSun int64  // minor units, 1 TRX = 1_000_000 sun
	Timestamp int64  // ms
}

// AmountTRX converts the transfer amount to major units.
func (t Transfer) AmountTRX() decimal.Decimal {
	return SunToTRX(t.AmountSun)
}

// SunToTRX converts minor units (sun) to TRX.
func SunToTRX(sun int64) decimal.Decimal {
	return decimal.New(sun, -6)
}

// parseTokenUnits converts a TRC-20 integer amount string to major units.
// USDT uses 6 decimals like TRX itself.
func parseTokenUnits(raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Shift(-6), nil
}

// AccountBalances holds the balances and resource limits shown to users.
type AccountBalances struct {
	TRX       decimal.Decimal
	USDT      decimal.Decimal
	Bandwidth int64
	Energy    int64
}

// --- wire types ---

type transactionsResponse struct {
	Data []transaction `json:"data"`
}

type transaction struct {
	TxID           string  `json:"txID"`
	BlockTimestamp int64   `json:"block_timestamp"`
	RawData        rawData `json:"raw_data"`
}

type rawData struct {
	Contract []contract `json:"contract"`
}

type contract struct {
	Type      string    `json:"type"`
	Parameter parameter `json:"parameter"`
}

type parameter struct {
	Value contractValue `json:"value"`
}

type contractValue struct {
	OwnerAddress string `json:"owner_address"`
	ToAddress    string `json:"to_address"`
	Amount       int64  `json:"amount"`
}

type accountResponse struct {
	Data []accountData `json:"data"`
}

type accountData struct {
	Balance int64               `json:"balance"`
	TRC20   []map[string]string `json:"trc20"`
}

type resourcesResponse struct {
	Data []resourcesData `json:"data"`
}

type resourcesData struct {
	FreeNetRemaining int64 `json:"freeNetRemaining"`
	NetRemaining     int64 `json:"netRemaining"`
	EnergyRemaining  int64 `json:"energyRemaining"`
}
