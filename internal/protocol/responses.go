package protocol

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConnectedMessage acknowledges a connect request. A non-empty Error means
// connectivity could not be established.
type ConnectedMessage struct {
	BaseMessage
	Error string `json:"error,omitempty"`
}

// DisconnectedMessage acknowledges a disconnect request.
type DisconnectedMessage struct {
	BaseMessage
	Error string `json:"error,omitempty"`
}

// ResetDoneMessage acknowledges a reset request.
type ResetDoneMessage struct {
	BaseMessage
}

// ErrorMessage is the terminal error outcome for a failed request. It names
// the original message it answers.
type ErrorMessage struct {
	BaseMessage
	OriginalKind Kind   `json:"original_kind"`
	Error        string `json:"error"`
}

// SubscriptionResponseMessage is the terminal reply to a lookup or
// subscription request. NoData marks a request whose window could not
// contain data (for example a from/to range entirely in the future).
type SubscriptionResponseMessage struct {
	BaseMessage
	NoData bool   `json:"no_data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SubscriptionOnlineMessage marks a live subscription as established.
type SubscriptionOnlineMessage struct {
	BaseMessage
}

// SubscriptionFinishedMessage is the terminal event for a subscription that
// wound down on caller request rather than by failure.
type SubscriptionFinishedMessage struct {
	BaseMessage
}

// SecurityMessage carries one instrument definition.
type SecurityMessage struct {
	BaseMessage
	SecurityID   string          `json:"security_id"`
	Name         string          `json:"name,omitempty"`
	BaseAsset    string          `json:"base_asset,omitempty"`
	QuoteAsset   string          `json:"quote_asset,omitempty"`
	PriceStep    decimal.Decimal `json:"price_step"`
	VolumeStep   decimal.Decimal `json:"volume_step"`
	MinVolume    decimal.Decimal `json:"min_volume"`
	TradingHalts bool            `json:"trading_halts,omitempty"`
}

// PortfolioMessage carries one account balance entry.
type PortfolioMessage struct {
	BaseMessage
	Portfolio string          `json:"portfolio"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
}

// BoardMessage carries one trading board definition.
type BoardMessage struct {
	BaseMessage
	Board string `json:"board"`
}

// OrderStateMessage reports the venue-side state of an order.
type OrderStateMessage struct {
	BaseMessage
	OrderID      string          `json:"order_id"`
	SecurityID   string          `json:"security_id"`
	Side         Side            `json:"side"`
	Status       string          `json:"status"`
	Price        decimal.Decimal `json:"price"`
	Volume       decimal.Decimal `json:"volume"`
	FilledVolume decimal.Decimal `json:"filled_volume"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TimeResultMessage reports the venue server time.
type TimeResultMessage struct {
	BaseMessage
	ServerTime time.Time `json:"server_time"`
}

// CandleMessage carries one candle of a candles subscription.
type CandleMessage struct {
	BaseMessage
	SecurityID string          `json:"security_id"`
	OpenTime   time.Time       `json:"open_time"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     decimal.Decimal `json:"volume"`
	IsFinal    bool            `json:"is_final"`
}

// TickMessage carries one trade of a ticks subscription.
type TickMessage struct {
	BaseMessage
	SecurityID string          `json:"security_id"`
	TradeID    string          `json:"trade_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	Side       Side            `json:"side,omitempty"`
	TradedAt   time.Time       `json:"traded_at"`
}

// Level1Message carries a best bid/ask update.
type Level1Message struct {
	BaseMessage
	SecurityID string          `json:"security_id"`
	BidPrice   decimal.Decimal `json:"bid_price"`
	BidVolume  decimal.Decimal `json:"bid_volume"`
	AskPrice   decimal.Decimal `json:"ask_price"`
	AskVolume  decimal.Decimal `json:"ask_volume"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewsMessage carries one news item.
type NewsMessage struct {
	BaseMessage
	Headline    string    `json:"headline"`
	Story       string    `json:"story,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
