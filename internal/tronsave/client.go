package tronsave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Options are the order parameters applied to every estimate and delegation,
// taken from configuration once at startup.
type Options struct {
	DurationSec       int
	UnitPrice         string
	AllowPartialFill  bool
	MinDelegateAmount int
}

// Client is a tronsave.io HTTP client
type Client struct {
	baseURL    string
	apiKey     string
	opts       Options
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a new tronsave client
func NewClient(baseURL, apiKey string, opts Options, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		opts:    opts,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	return data, resp.StatusCode, nil
}

// call performs a request and decodes the data field of the response
// envelope into out. A truthy error field is a failure regardless of the
// HTTP status code.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	data, status, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("API error %d: %s", status, string(data))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if env.failed() {
		return fmt.Errorf("tronsave error: %s", env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// GetAccountInfo returns the market account summary, or an error when the
// market is unavailable.
func (c *Client) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.call(ctx, http.MethodGet, "/v2/user-info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetOrderBook returns the raw order book for an address. Informational
// passthrough only.
func (c *Client) GetOrderBook(ctx context.Context, receiver string) (json.RawMessage, error) {
	path := fmt.Sprintf("/v2/order-book?address=%s&resourceType=ENERGY", receiver)
	var book json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, nil, &book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetOrderDetails returns the raw details of an order. The API has shipped
// the endpoint under two paths; 404 on the first falls through to the second.
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	paths := []string{"/v2/orders/" + orderID, "/v2/order/" + orderID}

	var lastErr error
	for _, path := range paths {
		data, status, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusNotFound {
			lastErr = fmt.Errorf("order %s not found at %s", orderID, path)
			continue
		}
		if status >= 400 {
			lastErr = fmt.Errorf("API error %d: %s", status, string(data))
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal: %w", err)
			continue
		}
		if env.failed() {
			return nil, fmt.Errorf("tronsave error: %s", env.Message)
		}
		return env.Data, nil
	}

	return nil, lastErr
}

// EstimateBuyResource asks the market to price a delegation of amount energy
// units to receiver, using the configured duration/tier/fill options.
func (c *Client) EstimateBuyResource(ctx context.Context, receiver string, amount int64) (*Estimate, error) {
	req := estimateRequest{
		ResourceType:   "ENERGY",
		Receiver:       receiver,
		DurationSec:    c.opts.DurationSec,
		ResourceAmount: amount,
		UnitPrice:      unitPriceValue(c.opts.UnitPrice),
		Options: estimateOptions{
			AllowPartialFill:                  c.opts.AllowPartialFill,
			MinResourceDelegateRequiredAmount: c.opts.MinDelegateAmount,
		},
	}

	var resp estimateResponse
	if err := c.call(ctx, http.MethodPost, "/v2/estimate-buy-resource", req, &resp); err != nil {
		return nil, err
	}

	unitPrice := looseString(resp.UnitPrice)
	if unitPrice == "" {
		unitPrice = c.opts.UnitPrice
	}

	return &Estimate{
		PriceTRX:  minorToTRX(resp.EstimateTRX),
		UnitPrice: unitPrice,
	}, nil
}

// BuyResource places a delegation order for amount energy units to receiver.
func (c *Client) BuyResource(ctx context.Context, receiver string, amount int64) (*Order, error) {
	req := buyResourceRequest{
		ResourceType:   "ENERGY",
		UnitPrice:      unitPriceValue(c.opts.UnitPrice),
		ResourceAmount: amount,
		Receiver:       receiver,
		DurationSec:    c.opts.DurationSec,
		Options: buyOptions{
			AllowPartialFill:                  c.opts.AllowPartialFill,
			MinResourceDelegateRequiredAmount: c.opts.MinDelegateAmount,
		},
	}

	var resp buyResourceResponse
	if err := c.call(ctx, http.MethodPost, "/v2/buy-resource", req, &resp); err != nil {
		return nil, err
	}

	return &Order{ID: looseString(resp.OrderID)}, nil
}

// Delegate places a delegation order for the wallet. Order-creation failures
// are returned to the caller for logging; they never reach invoice state.
func (c *Client) Delegate(ctx context.Context, wallet string, amount int64) error {
	order, err := c.BuyResource(ctx, wallet, amount)
	if err != nil {
		return fmt.Errorf("create buy-resource order: %w", err)
	}

	c.log.Info("buy-resource order created",
		"order_id", order.ID,
		"energy", amount,
		"receiver", wallet,
	)
	return nil
}

// unitPriceValue keeps numeric tiers numeric on the wire while passing named
// tiers (FAST, MEDIUM, SLOW) through as strings.
func unitPriceValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func looseString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatInt(int64(val), 10)
	default:
		return fmt.Sprint(val)
	}
}
