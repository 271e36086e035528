// Package coinbase implements the Coinbase Advanced Trade connector: a REST
// venue gateway, request signing, a live trades stream and the handler
// overrides that plug them into the async message core.
package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/connector"
	"github.com/venuelink/venuelink/pkg/metrics"
)

const defaultRESTURL = "https://api.coinbase.com"

// Gateway is the venue gateway for Coinbase Advanced Trade. Each method maps
// one REST endpoint; failures come back as *connector.RemoteError carrying
// the venue-reported code/message pair when one was present.
type Gateway struct {
	baseURL string
	client  *http.Client
	auth    *Authenticator
	logger  *zap.Logger
}

// NewGateway creates a gateway against the given base URL. auth may be nil
// for public (market data only) access.
func NewGateway(baseURL string, auth *Authenticator, logger *zap.Logger) *Gateway {
	if baseURL == "" {
		baseURL = defaultRESTURL
	}
	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		auth:    auth,
		logger:  logger,
	}
}

// Product is one tradable instrument.
type Product struct {
	ProductID      string          `json:"product_id"`
	BaseName       string          `json:"base_name"`
	QuoteName      string          `json:"quote_name"`
	BaseIncrement  decimal.Decimal `json:"base_increment"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	BaseMinSize    decimal.Decimal `json:"base_min_size"`
	Status         string          `json:"status"`
	TradingHalted  bool            `json:"is_disabled"`
}

// Candle is one OHLCV bar. Start is unix seconds, all other fields are
// decimal strings on the wire.
type Candle struct {
	Start  string          `json:"start"`
	Low    decimal.Decimal `json:"low"`
	High   decimal.Decimal `json:"high"`
	Open   decimal.Decimal `json:"open"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// StartTime converts the wire start field to a time.
func (c Candle) StartTime() time.Time {
	sec, err := strconv.ParseInt(c.Start, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Account is one portfolio balance entry.
type Account struct {
	UUID             string  `json:"uuid"`
	Name             string  `json:"name"`
	Currency         string  `json:"currency"`
	AvailableBalance Balance `json:"available_balance"`
	Hold             Balance `json:"hold"`
}

// Balance is a value/currency pair.
type Balance struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Order is the venue-side order state.
type Order struct {
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	Side           string          `json:"side"`
	Status         string          `json:"status"`
	AverageFilled  decimal.Decimal `json:"average_filled_price"`
	FilledSize     decimal.Decimal `json:"filled_size"`
	CreatedTime    time.Time       `json:"created_time"`
	LastFillTime   time.Time       `json:"last_fill_time"`
	ClientOrderID  string          `json:"client_order_id"`
	CompletionPerc decimal.Decimal `json:"completion_percentage"`
}

// CreateOrderRequest is the explicit request body for order placement. Only
// populated optional fields are serialized.
type CreateOrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

// OrderConfiguration is a tagged union: exactly one member is set.
type OrderConfiguration struct {
	MarketIOC    *MarketIOC    `json:"market_market_ioc,omitempty"`
	LimitGTC     *LimitGTC     `json:"limit_limit_gtc,omitempty"`
	LimitIOC     *LimitGTC     `json:"sor_limit_ioc,omitempty"`
	StopLimitGTC *StopLimitGTC `json:"stop_limit_stop_limit_gtc,omitempty"`
}

// MarketIOC configures an immediate-or-cancel market order.
type MarketIOC struct {
	QuoteSize *decimal.Decimal `json:"quote_size,omitempty"`
	BaseSize  *decimal.Decimal `json:"base_size,omitempty"`
}

// LimitGTC configures a good-til-cancelled limit order.
type LimitGTC struct {
	BaseSize   decimal.Decimal `json:"base_size"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	PostOnly   bool            `json:"post_only,omitempty"`
}

// StopLimitGTC configures a stop-limit order.
type StopLimitGTC struct {
	BaseSize      decimal.Decimal `json:"base_size"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	StopPrice     decimal.Decimal `json:"stop_price"`
	StopDirection string          `json:"stop_direction,omitempty"`
}

// CreateOrderResponse reports order placement outcome.
type CreateOrderResponse struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"order_id"`
	FailureReason string `json:"failure_reason"`
	ErrorResponse *struct {
		Error        string `json:"error"`
		Message      string `json:"message"`
		ErrorDetails string `json:"error_details"`
	} `json:"error_response"`
	SuccessResponse *struct {
		OrderID       string `json:"order_id"`
		ProductID     string `json:"product_id"`
		Side          string `json:"side"`
		ClientOrderID string `json:"client_order_id"`
	} `json:"success_response"`
}

// CancelResult reports the outcome of cancelling one order.
type CancelResult struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason"`
	OrderID       string `json:"order_id"`
}

// Products lists all tradable products.
func (g *Gateway) Products(ctx context.Context) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	if err := g.do(ctx, "products", http.MethodGet, "/api/v3/brokerage/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Product fetches one product by id.
func (g *Gateway) Product(ctx context.Context, productID string) (*Product, error) {
	var out Product
	path := "/api/v3/brokerage/products/" + url.PathEscape(productID)
	if err := g.do(ctx, "product", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Candles fetches historical candles for one product. The granularity must
// be one the venue supports; see GranularityFor.
func (g *Gateway) Candles(ctx context.Context, productID, granularity string, start, end time.Time) ([]Candle, error) {
	q := url.Values{}
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("granularity", granularity)

	var out struct {
		Candles []Candle `json:"candles"`
	}
	path := "/api/v3/brokerage/products/" + url.PathEscape(productID) + "/candles"
	if err := g.do(ctx, "candles", http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Candles, nil
}

// ServerTime fetches the venue clock.
func (g *Gateway) ServerTime(ctx context.Context) (time.Time, error) {
	var out struct {
		ISO          string `json:"iso"`
		EpochSeconds string `json:"epochSeconds"`
	}
	if err := g.do(ctx, "time", http.MethodGet, "/api/v3/brokerage/time", nil, nil, &out); err != nil {
		return time.Time{}, err
	}
	if ts, err := time.Parse(time.RFC3339, out.ISO); err == nil {
		return ts, nil
	}
	sec, err := strconv.ParseInt(out.EpochSeconds, 10, 64)
	if err != nil {
		return time.Time{}, &RemoteDecodeError{Op: "time", Err: err}
	}
	return time.Unix(sec, 0).UTC(), nil
}

// Accounts lists the authenticated user's accounts.
func (g *Gateway) Accounts(ctx context.Context) ([]Account, error) {
	var out struct {
		Accounts []Account `json:"accounts"`
	}
	if err := g.do(ctx, "accounts", http.MethodGet, "/api/v3/brokerage/accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// CreateOrder places a new order.
func (g *Gateway) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	var out CreateOrderResponse
	if err := g.do(ctx, "create_order", http.MethodPost, "/api/v3/brokerage/orders", nil, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		rerr := &connector.RemoteError{Op: "create_order", Reason: out.FailureReason}
		if out.ErrorResponse != nil {
			rerr.Code = out.ErrorResponse.Error
			if out.ErrorResponse.Message != "" {
				rerr.Reason = out.ErrorResponse.Message
			}
		}
		return &out, rerr
	}
	return &out, nil
}

// CancelOrders cancels the given order ids.
func (g *Gateway) CancelOrders(ctx context.Context, orderIDs []string) ([]CancelResult, error) {
	body := struct {
		OrderIDs []string `json:"order_ids"`
	}{OrderIDs: orderIDs}

	var out struct {
		Results []CancelResult `json:"results"`
	}
	if err := g.do(ctx, "cancel_orders", http.MethodPost, "/api/v3/brokerage/orders/batch_cancel", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Order fetches the state of one historical order.
func (g *Gateway) Order(ctx context.Context, orderID string) (*Order, error) {
	var out struct {
		Order Order `json:"order"`
	}
	path := "/api/v3/brokerage/orders/historical/" + url.PathEscape(orderID)
	if err := g.do(ctx, "order", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// RemoteDecodeError reports a response body the gateway could not interpret.
type RemoteDecodeError struct {
	Op  string
	Err error
}

func (e *RemoteDecodeError) Error() string {
	return fmt.Sprintf("%s: decode venue response: %v", e.Op, e.Err)
}

func (e *RemoteDecodeError) Unwrap() error { return e.Err }

// venueError is the error body shape of the Advanced Trade API.
type venueError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do performs one REST call: marshal body, sign, send, decode, map errors.
func (g *Gateway) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := g.doOnce(ctx, method, path, query, body, out)
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayRequests.WithLabelValues(op, "error").Inc()
		if rerr, ok := err.(*connector.RemoteError); ok {
			rerr.Op = op
			return rerr
		}
		if ctx.Err() != nil {
			// Keep the cancellation visible to the caller's ctx correlation.
			return err
		}
		return &connector.RemoteError{Op: op, Err: err}
	}
	metrics.GatewayRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func (g *Gateway) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if g.auth != nil {
		token, err := g.auth.Token(method, req.URL.Host, req.URL.Path)
		if err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ve venueError
		if json.Unmarshal(data, &ve) == nil && (ve.Error != "" || ve.Message != "") {
			code := ve.Code
			if code == "" {
				code = ve.Error
			}
			return &connector.RemoteError{Code: code, Reason: ve.Message}
		}
		return &connector.RemoteError{Reason: fmt.Sprintf("http status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
