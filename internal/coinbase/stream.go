package coinbase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/connector"
	"github.com/venuelink/venuelink/internal/protocol"
)

const defaultWSURL = "wss://advanced-trade-ws.coinbase.com"

// TradeStream consumes the Advanced Trade market_trades channel for one
// product and emits protocol tick messages. One Run call covers one
// connection lifetime; it returns the context error when the caller winds
// the subscription down.
type TradeStream struct {
	url       string
	readLimit int64
	pongWait  time.Duration
	writeWait time.Duration
	dialer    *websocket.Dialer
	logger    *zap.Logger
}

// NewTradeStream creates a stream against the given websocket URL.
func NewTradeStream(wsURL string, logger *zap.Logger) *TradeStream {
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &TradeStream{
		url:       wsURL,
		readLimit: 1 << 20,
		pongWait:  60 * time.Second,
		writeWait: 5 * time.Second,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
	}
}

type wsMessage struct {
	Channel string    `json:"channel"`
	Events  []wsEvent `json:"events"`
}

type wsEvent struct {
	Type   string    `json:"type"`
	Trades []wsTrade `json:"trades"`
}

type wsTrade struct {
	TradeID   string          `json:"trade_id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Side      string          `json:"side"`
	Time      time.Time       `json:"time"`
}

// Run dials, subscribes and pumps trades into the sink under the given
// transaction id until the context is done or the connection fails.
func (s *TradeStream) Run(ctx context.Context, productID string, transID int64, sink connector.Sink) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the blocking read when the subscription is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(s.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
		return nil
	})

	sub := map[string]any{
		"type":        "subscribe",
		"channel":     "market_trades",
		"product_ids": []string{productID},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	sink.Emit(&protocol.SubscriptionOnlineMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindSubscriptionOnline, TransID: transID},
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("skipping undecodable frame", zap.Error(err))
			continue
		}
		if msg.Channel != "market_trades" {
			continue
		}

		for _, ev := range msg.Events {
			for _, tr := range ev.Trades {
				sink.Emit(&protocol.TickMessage{
					BaseMessage: protocol.BaseMessage{Kind: protocol.KindTick, TransID: transID},
					SecurityID:  tr.ProductID,
					TradeID:     tr.TradeID,
					Price:       tr.Price,
					Volume:      tr.Size,
					Side:        protocol.Side(strings.ToLower(tr.Side)),
					TradedAt:    tr.Time,
				})
			}
		}
	}
}
