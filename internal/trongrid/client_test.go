package trongrid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const transactionsBody = `{
	"data": [
		{
			"txID": "aa11",
			"block_timestamp": 1767268800000,
			"raw_data": {
				"contract": [
					{
						"type": "TransferContract",
						"parameter": {
							"value": {
								"owner_address": "41deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
								"to_address": "41a614f803b6fd780986a42c78ec9c7f77e6ded13c",
								"amount": 10000000
							}
						}
					}
				]
			}
		},
		{
			"txID": "bb22",
			"block_timestamp": 1767268900000,
			"raw_data": {
				"contract": [
					{
						"type": "TriggerSmartContract",
						"parameter": {
							"value": {
								"to_address": "41a614f803b6fd780986a42c78ec9c7f77e6ded13c",
								"amount": 999
							}
						}
					},
					{
						"type": "TransferContract",
						"parameter": {
							"value": {
								"to_address": "0x41A614F803B6FD780986A42C78EC9C7F77E6DED13C",
								"amount": 2500000
							}
						}
					}
				]
			}
		}
	]
}`

func TestGetIncomingTransfers(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("TRON-PRO-API-KEY")
		w.Write([]byte(transactionsBody))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")

	since := time.UnixMilli(1767268800000)
	transfers, err := c.GetIncomingTransfers(context.Background(), "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", since, 50)
	if err != nil {
		t.Fatalf("GetIncomingTransfers() error = %v", err)
	}

	if gotPath != "/v1/accounts/TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t/transactions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "only_to=true&limit=50&min_timestamp=1767268800000" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}

	// Only the two TransferContract calls survive parsing.
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].TxID != "aa11" || transfers[0].AmountSun != 10_000_000 {
		t.Errorf("transfers[0] = %+v", transfers[0])
	}
	if !transfers[0].AmountTRX().Equal(decimal.RequireFromString("10")) {
		t.Errorf("AmountTRX() = %s, want 10", transfers[0].AmountTRX())
	}
	if transfers[1].To != "0x41A614F803B6FD780986A42C78EC9C7F77E6DED13C" {
		t.Errorf("transfers[1].To = %q, destination should be kept verbatim", transfers[1].To)
	}
}

func TestGetIncomingTransfersAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if _, err := c.GetIncomingTransfers(context.Background(), "TR7N", time.Now(), 50); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestGetAccountBalances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/accounts/TXYZ":
			w.Write([]byte(`{
				"data": [
					{
						"balance": 123456789,
						"trc20": [
							{"TAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA": "5"},
							{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t": "2500000"}
						]
					}
				]
			}`))
		case "/v1/accounts/TXYZ/resources":
			w.Write([]byte(`{
				"data": [
					{"freeNetRemaining": 400, "netRemaining": 100, "energyRemaining": 150000}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	balances, err := c.GetAccountBalances(context.Background(), "TXYZ")
	if err != nil {
		t.Fatalf("GetAccountBalances() error = %v", err)
	}

	if !balances.TRX.Equal(decimal.RequireFromString("123.456789")) {
		t.Errorf("TRX = %s", balances.TRX)
	}
	if !balances.USDT.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("USDT = %s", balances.USDT)
	}
	if balances.Bandwidth != 500 {
		t.Errorf("Bandwidth = %d, want 500", balances.Bandwidth)
	}
	if balances.Energy != 150000 {
		t.Errorf("Energy = %d, want 150000", balances.Energy)
	}
}

func TestGetAccountBalancesEmptyAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	balances, err := c.GetAccountBalances(context.Background(), "TXYZ")
	if err != nil {
		t.Fatalf("GetAccountBalances() error = %v", err)
	}
	if !balances.TRX.IsZero() || balances.Energy != 0 {
		t.Errorf("empty account should have zero balances, got %+v", balances)
	}
}
