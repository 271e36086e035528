package coinbase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/connector"
	"github.com/venuelink/venuelink/internal/protocol"
	"github.com/venuelink/venuelink/internal/settings"
)

// Connector plugs the Coinbase gateway into the async message core.
type Connector struct {
	gateway *Gateway
	stream  *TradeStream
	adapter *connector.Adapter
	sink    connector.Sink
	logger  *zap.Logger
}

// New builds the Coinbase connector: gateway, stream and handler overrides.
// Credentials are optional; without them only public market data works and
// authenticated operations fail with the venue's unauthorized error.
func New(cfg *settings.Settings, sink connector.Sink, logger *zap.Logger) (*Connector, error) {
	var auth *Authenticator
	if cfg.Auth.KeyName != "" && cfg.Auth.PrivateKeyFile != "" {
		pemKey, err := os.ReadFile(cfg.Auth.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		auth, err = NewAuthenticator(cfg.Auth.KeyName, pemKey)
		if err != nil {
			return nil, err
		}
	}

	c := &Connector{
		gateway: NewGateway(cfg.Venue.RESTURL, auth, logger.Named("gateway")),
		stream:  NewTradeStream(cfg.Venue.WSURL, logger.Named("stream")),
		sink:    sink,
		logger:  logger,
	}

	a := connector.NewAdapter(sink, logger.Named("adapter"))
	a.On(protocol.KindSecurityLookup, c.handleSecurityLookup)
	a.On(protocol.KindPortfolioLookup, c.handlePortfolioLookup)
	a.On(protocol.KindOrderRegister, c.handleOrderRegister)
	a.On(protocol.KindOrderCancel, c.handleOrderCancel)
	a.On(protocol.KindOrderStatus, c.handleOrderStatus)
	a.On(protocol.KindTime, c.handleTime)

	subs := a.Subscriptions()
	subs.OnTimeFrameCandles(c.handleCandles)
	subs.OnTicks(c.handleTicks)

	c.adapter = a
	return c, nil
}

// Adapter exposes the configured handler table for the processor.
func (c *Connector) Adapter() *connector.Adapter {
	return c.adapter
}

func (c *Connector) handleSecurityLookup(ctx context.Context, msg protocol.Message) error {
	req := msg.(*protocol.SecurityLookupMessage)

	products, err := c.gateway.Products(ctx)
	if err != nil {
		return err
	}

	for i := range products {
		p := &products[i]
		if req.SecurityID != "" && p.ProductID != req.SecurityID {
			continue
		}
		if req.Currency != "" && p.QuoteName != req.Currency {
			continue
		}
		c.sink.Emit(&protocol.SecurityMessage{
			BaseMessage:  protocol.BaseMessage{Kind: protocol.KindSecurity, TransID: req.TransID},
			SecurityID:   p.ProductID,
			Name:         p.BaseName + "/" + p.QuoteName,
			BaseAsset:    p.BaseName,
			QuoteAsset:   p.QuoteName,
			PriceStep:    p.QuoteIncrement,
			VolumeStep:   p.BaseIncrement,
			MinVolume:    p.BaseMinSize,
			TradingHalts: p.TradingHalted,
		})
	}

	c.emitResult(req.TransID)
	return nil
}

func (c *Connector) handlePortfolioLookup(ctx context.Context, msg protocol.Message) error {
	req := msg.(*protocol.PortfolioLookupMessage)

	accounts, err := c.gateway.Accounts(ctx)
	if err != nil {
		return err
	}

	for _, acc := range accounts {
		c.sink.Emit(&protocol.PortfolioMessage{
			BaseMessage: protocol.BaseMessage{Kind: protocol.KindPortfolio, TransID: req.TransID},
			Portfolio:   acc.Name,
			Currency:    acc.Currency,
			Balance:     acc.AvailableBalance.Value.Add(acc.Hold.Value),
			Available:   acc.AvailableBalance.Value,
		})
	}

	c.emitResult(req.TransID)
	return nil
}

func (c *Connector) handleTime(ctx context.Context, msg protocol.Message) error {
	ts, err := c.gateway.ServerTime(ctx)
	if err != nil {
		return err
	}
	c.sink.Emit(&protocol.TimeResultMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindTimeResult, TransID: msg.TransactionID()},
		ServerTime:  ts,
	})
	return nil
}

func (c *Connector) handleOrderRegister(ctx context.Context, msg protocol.Message) error {
	req := msg.(*protocol.OrderRegisterMessage)

	venueReq := &CreateOrderRequest{
		ClientOrderID: uuid.NewString(),
		ProductID:     req.SecurityID,
		Side:          sideToVenue(req.Side),
	}
	switch req.OrderType {
	case protocol.OrderTypeMarket:
		size := req.Volume
		venueReq.OrderConfiguration.MarketIOC = &MarketIOC{BaseSize: &size}
	case protocol.OrderTypeLimit:
		venueReq.OrderConfiguration.LimitGTC = &LimitGTC{
			BaseSize:   req.Volume,
			LimitPrice: req.Price,
		}
	default:
		return fmt.Errorf("order type %q cannot be mapped to the venue", req.OrderType)
	}

	resp, err := c.gateway.CreateOrder(ctx, venueReq)
	if err != nil {
		return err
	}

	c.sink.Emit(&protocol.OrderStateMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderState, TransID: req.TransID},
		OrderID:     resp.OrderID,
		SecurityID:  req.SecurityID,
		Side:        req.Side,
		Status:      "accepted",
		Price:       req.Price,
		Volume:      req.Volume,
		UpdatedAt:   time.Now().UTC(),
	})
	return nil
}

func (c *Connector) handleOrderCancel(ctx context.Context, msg protocol.Message) error {
	req := msg.(*protocol.OrderCancelMessage)

	results, err := c.gateway.CancelOrders(ctx, []string{req.OrderID})
	if err != nil {
		return err
	}

	for _, res := range results {
		if !res.Success {
			return &connector.RemoteError{Op: "cancel_orders", Code: res.FailureReason,
				Reason: fmt.Sprintf("cancel of order %s rejected", res.OrderID)}
		}
		c.sink.Emit(&protocol.OrderStateMessage{
			BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderState, TransID: req.TransID},
			OrderID:     res.OrderID,
			SecurityID:  req.SecurityID,
			Status:      "canceled",
			UpdatedAt:   time.Now().UTC(),
		})
	}
	return nil
}

func (c *Connector) handleOrderStatus(ctx context.Context, msg protocol.Message) error {
	req := msg.(*protocol.OrderStatusMessage)

	order, err := c.gateway.Order(ctx, req.OrderID)
	if err != nil {
		return err
	}

	c.sink.Emit(&protocol.OrderStateMessage{
		BaseMessage:  protocol.BaseMessage{Kind: protocol.KindOrderState, TransID: req.TransID},
		OrderID:      order.OrderID,
		SecurityID:   order.ProductID,
		Side:         protocol.Side(order.Side),
		Status:       order.Status,
		Price:        order.AverageFilled,
		FilledVolume: order.FilledSize,
		UpdatedAt:    order.LastFillTime,
	})
	return nil
}

// handleCandles serves the time-framed candles branch from the venue's
// historical candles endpoint.
func (c *Connector) handleCandles(ctx context.Context, md *protocol.MarketDataMessage) error {
	if !md.IsSubscribe {
		c.emitResult(md.TransID)
		return nil
	}

	granularity, err := GranularityFor(md.Interval)
	if err != nil {
		return err
	}

	end := md.To
	if end.IsZero() {
		end = time.Now().UTC()
	}
	start := md.From
	if start.IsZero() {
		start = end.Add(-300 * md.Interval)
	}

	candles, err := c.gateway.Candles(ctx, md.SecurityID, granularity, start, end)
	if err != nil {
		return err
	}

	// The venue returns newest first; replay oldest first.
	for i := len(candles) - 1; i >= 0; i-- {
		cd := candles[i]
		c.sink.Emit(&protocol.CandleMessage{
			BaseMessage: protocol.BaseMessage{Kind: protocol.KindCandle, TransID: md.TransID},
			SecurityID:  md.SecurityID,
			OpenTime:    cd.StartTime(),
			Open:        cd.Open,
			High:        cd.High,
			Low:         cd.Low,
			Close:       cd.Close,
			Volume:      cd.Volume,
			IsFinal:     true,
		})
	}

	c.emitResult(md.TransID)
	return nil
}

// handleTicks serves the ticks branch: historical windows are not offered by
// the venue, live subscriptions ride the websocket stream until cancelled.
func (c *Connector) handleTicks(ctx context.Context, md *protocol.MarketDataMessage) error {
	if !md.IsSubscribe {
		c.emitResult(md.TransID)
		return nil
	}
	if !md.To.IsZero() {
		return fmt.Errorf("historical tick windows are not available from this venue")
	}
	return c.stream.Run(ctx, md.SecurityID, md.TransID, c.sink)
}

// emitResult sends the terminal success response for a transaction.
func (c *Connector) emitResult(transID int64) {
	c.sink.Emit(&protocol.SubscriptionResponseMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindSubscriptionResponse, TransID: transID},
	})
}

func sideToVenue(side protocol.Side) string {
	if side == protocol.SideSell {
		return "SELL"
	}
	return "BUY"
}

// GranularityFor maps a requested candle interval to the venue's closed
// granularity set.
func GranularityFor(interval time.Duration) (string, error) {
	switch interval {
	case time.Minute:
		return "ONE_MINUTE", nil
	case 5 * time.Minute:
		return "FIVE_MINUTE", nil
	case 15 * time.Minute:
		return "FIFTEEN_MINUTE", nil
	case 30 * time.Minute:
		return "THIRTY_MINUTE", nil
	case time.Hour:
		return "ONE_HOUR", nil
	case 2 * time.Hour:
		return "TWO_HOUR", nil
	case 6 * time.Hour:
		return "SIX_HOUR", nil
	case 24 * time.Hour:
		return "ONE_DAY", nil
	default:
		return "", fmt.Errorf("candle interval %s is not supported by the venue", interval)
	}
}
