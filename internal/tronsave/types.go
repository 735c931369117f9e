package tronsave

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// EnergyPackage is a priced delegation offer shown to the user. Recomputed
// per request, never persisted.
type EnergyPackage struct {
	ID           int
	EnergyAmount int64
	BasePriceTRX decimal.Decimal
	UnitPrice    string
}

// Estimate is the market's price quote for one resource amount.
type Estimate struct {
	PriceTRX  decimal.Decimal
	UnitPrice string
}

// Order is the market-side record of a placed delegation. Only the creation
// response is relied upon; nothing is persisted locally.
type Order struct {
	ID string
}

// AccountInfo is the market account summary.
type AccountInfo struct {
	ID               string `json:"id"`
	BalanceSun       int64  `json:"balance"`
	RepresentAddress string `json:"representAddress"`
}

// --- wire types ---

// envelope wraps every tronsave response. The error field is truthy on
// failure regardless of HTTP status, and its JSON type is not stable.
type envelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) failed() bool {
	switch strings.TrimSpace(string(e.Error)) {
	case "", "false", "null", "0", `""`:
		return false
	}
	return true
}

type estimateOptions struct {
	AllowPartialFill                  bool `json:"allowPartialFill"`
	MinResourceDelegateRequiredAmount int  `json:"minResourceDelegateRequiredAmount"`
}

type buyOptions struct {
	AllowPartialFill                  bool `json:"allowPartialFill"`
	OnlyCreateWhenFulfilled           bool `json:"onlyCreateWhenFulfilled"`
	PreventDuplicateIncompleteOrders  bool `json:"preventDuplicateIncompleteOrders"`
	MinResourceDelegateRequiredAmount int  `json:"minResourceDelegateRequiredAmount,omitempty"`
	MaxPriceAccepted                  int  `json:"maxPriceAccepted,omitempty"`
}

type estimateRequest struct {
	ResourceType   string          `json:"resourceType"`
	Receiver       string          `json:"receiver"`
	DurationSec    int             `json:"durationSec"`
	ResourceAmount int64           `json:"resourceAmount"`
	UnitPrice      any             `json:"unitPrice"`
	Options        estimateOptions `json:"options"`
}

type estimateResponse struct {
	EstimateTRX int64 `json:"estimateTrx"` // minor units despite the name
	UnitPrice   any   `json:"unitPrice"`
}

type buyResourceRequest struct {
	ResourceType   string     `json:"resourceType"`
	UnitPrice      any        `json:"unitPrice"`
	ResourceAmount int64      `json:"resourceAmount"`
	Receiver       string     `json:"receiver"`
	DurationSec    int        `json:"durationSec"`
	Options        buyOptions `json:"options"`
}

type buyResourceResponse struct {
	OrderID any `json:"orderId"`
}
