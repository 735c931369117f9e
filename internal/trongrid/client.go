package trongrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Mainnet USDT TRC-20 contract, used for the balance display.
const usdtContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

// Client is a TronGrid HTTP client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new TronGrid client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

// GetIncomingTransfers returns inbound TRX transfers to an address since the
// given time. Only plain TransferContract calls are returned; TRC-20 and
// other contract types are ignored.
func (c *Client) GetIncomingTransfers(ctx context.Context, address string, since time.Time, limit int) ([]Transfer, error) {
	path := fmt.Sprintf(
		"/v1/accounts/%s/transactions?only_to=true&limit=%d&min_timestamp=%d",
		address, limit, since.UnixMilli(),
	)
	data, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp transactionsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var transfers []Transfer
	for _, tx := range resp.Data {
		for _, contract := range tx.RawData.Contract {
			if contract.Type != "TransferContract" {
				continue
			}
			transfers = append(transfers, Transfer{
				TxID:      tx.TxID,
				To:        contract.Parameter.Value.ToAddress,
				AmountSun: contract.Parameter.Value.Amount,
				Timestamp: tx.BlockTimestamp,
			})
		}
	}

	return transfers, nil
}

// GetAccountBalances returns TRX/USDT balances and remaining resources for
// an address.
func (c *Client) GetAccountBalances(ctx context.Context, address string) (*AccountBalances, error) {
	accountData, err := c.doRequest(ctx, "/v1/accounts/"+address)
	if err != nil {
		return nil, err
	}

	var account accountResponse
	if err := json.Unmarshal(accountData, &account); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}

	resourcesData, err := c.doRequest(ctx, "/v1/accounts/"+address+"/resources")
	if err != nil {
		return nil, err
	}

	var resources resourcesResponse
	if err := json.Unmarshal(resourcesData, &resources); err != nil {
		return nil, fmt.Errorf("unmarshal resources: %w", err)
	}

	balances := &AccountBalances{}

	if len(account.Data) > 0 {
		acc := account.Data[0]
		balances.TRX = SunToTRX(acc.Balance)
		for _, token := range acc.TRC20 {
			if raw, ok := token[usdtContract]; ok {
				if usdt, err := parseTokenUnits(raw); err == nil {
					balances.USDT = usdt
				}
				break
			}
		}
	}

	if len(resources.Data) > 0 {
		res := resources.Data[0]
		balances.Bandwidth = res.FreeNetRemaining + res.NetRemaining
		balances.Energy = res.EnergyRemaining
	}

	return balances, nil
}
