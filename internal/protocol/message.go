package protocol

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Message is the immutable unit of work flowing through a connector.
type Message interface {
	// MessageKind returns the closed-set kind tag of the message.
	MessageKind() Kind
	// TransactionID returns the request correlation id, or zero for
	// fire-and-forget messages that expect no one-shot reply.
	TransactionID() int64
}

// BaseMessage contains common fields for all messages
type BaseMessage struct {
	Kind    Kind  `json:"kind"`
	TransID int64 `json:"transaction_id,omitempty"`
}

func (m *BaseMessage) MessageKind() Kind    { return m.Kind }
func (m *BaseMessage) TransactionID() int64 { return m.TransID }

// Describe renders a short human readable reference to a message, used when
// reporting a failure against the original request.
func Describe(m Message) string {
	if m == nil {
		return "<nil>"
	}
	if tx := m.TransactionID(); tx != 0 {
		return fmt.Sprintf("%s/%d", m.MessageKind(), tx)
	}
	return m.MessageKind().String()
}

// ConnectMessage asks the connector to establish venue connectivity.
type ConnectMessage struct {
	BaseMessage
}

// DisconnectMessage asks the connector to tear venue connectivity down.
type DisconnectMessage struct {
	BaseMessage
}

// ResetMessage asks the connector to drop all state and return to the
// just-constructed condition. Its handler must not fail.
type ResetMessage struct {
	BaseMessage
}

// SecurityLookupMessage requests instrument definitions.
type SecurityLookupMessage struct {
	BaseMessage
	SecurityID string `json:"security_id,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// PortfolioLookupMessage requests account/portfolio state.
type PortfolioLookupMessage struct {
	BaseMessage
	Portfolio string `json:"portfolio,omitempty"`
}

// BoardLookupMessage requests trading board definitions.
type BoardLookupMessage struct {
	BaseMessage
	Board string `json:"board,omitempty"`
}

// OrderStatusMessage requests the current state of one order, or of all
// active orders when OrderID is empty.
type OrderStatusMessage struct {
	BaseMessage
	OrderID string `json:"order_id,omitempty"`
}

// OrderRegisterMessage places a new order at the venue.
type OrderRegisterMessage struct {
	BaseMessage
	SecurityID  string          `json:"security_id"`
	Portfolio   string          `json:"portfolio,omitempty"`
	Side        Side            `json:"side"`
	OrderType   OrderType       `json:"order_type"`
	TimeInForce string          `json:"time_in_force,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Volume      decimal.Decimal `json:"volume"`
	Comment     string          `json:"comment,omitempty"`
}

// OrderReplaceMessage cancels an existing order and registers a replacement.
type OrderReplaceMessage struct {
	BaseMessage
	OrderID    string          `json:"order_id"`
	SecurityID string          `json:"security_id"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
}

// OrderPairReplaceMessage atomically replaces two related orders.
type OrderPairReplaceMessage struct {
	BaseMessage
	First  OrderReplaceMessage `json:"first"`
	Second OrderReplaceMessage `json:"second"`
}

// OrderCancelMessage cancels a single order.
type OrderCancelMessage struct {
	BaseMessage
	OrderID    string `json:"order_id"`
	SecurityID string `json:"security_id,omitempty"`
}

// OrderGroupCancelMessage cancels every active order matching the filter.
type OrderGroupCancelMessage struct {
	BaseMessage
	SecurityID string `json:"security_id,omitempty"`
	Side       Side   `json:"side,omitempty"`
}

// TimeMessage requests the venue server time.
type TimeMessage struct {
	BaseMessage
}

// MarketDataMessage subscribes to, or unsubscribes from, one market data
// stream. A zero To means open-ended (live) subscription.
type MarketDataMessage struct {
	BaseMessage
	SecurityID  string        `json:"security_id"`
	DataType    DataType      `json:"data_type"`
	From        time.Time     `json:"from,omitempty"`
	To          time.Time     `json:"to,omitempty"`
	Interval    time.Duration `json:"interval,omitempty"`
	IsSubscribe bool          `json:"is_subscribe"`
}

// GenericMessage carries a payload the core forwards without interpreting.
type GenericMessage struct {
	BaseMessage
	Payload map[string]any `json:"payload,omitempty"`
}

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType is the venue-agnostic order type.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)
