package protocol

// Kind identifies the type of a protocol message flowing through a connector.
type Kind string

const (
	// Control messages. These change connectivity state and are mutually
	// exclusive in time with every other in-flight message.
	KindConnect    Kind = "connect"
	KindDisconnect Kind = "disconnect"
	KindReset      Kind = "reset"

	// Lookup and order management messages.
	KindSecurityLookup   Kind = "security.lookup"
	KindPortfolioLookup  Kind = "portfolio.lookup"
	KindBoardLookup      Kind = "board.lookup"
	KindOrderStatus      Kind = "order.status"
	KindOrderRegister    Kind = "order.register"
	KindOrderReplace     Kind = "order.replace"
	KindOrderPairReplace Kind = "order.pair_replace"
	KindOrderCancel      Kind = "order.cancel"
	KindOrderGroupCancel Kind = "order.group_cancel"
	KindTime             Kind = "time"

	// Market data subscription requests.
	KindMarketData Kind = "marketdata"

	// KindGeneric is the catch-all for messages a connector forwards opaquely.
	KindGeneric Kind = "generic"
)

const (
	// Outbound event kinds.
	KindConnected            Kind = "connected"
	KindDisconnected         Kind = "disconnected"
	KindResetDone            Kind = "reset.done"
	KindError                Kind = "error"
	KindSecurity             Kind = "security"
	KindPortfolio            Kind = "portfolio"
	KindBoard                Kind = "board"
	KindOrderState           Kind = "order.state"
	KindTimeResult           Kind = "time.result"
	KindSubscriptionResponse Kind = "subscription.response"
	KindSubscriptionOnline   Kind = "subscription.online"
	KindSubscriptionFinished Kind = "subscription.finished"
	KindCandle               Kind = "candle"
	KindTick                 Kind = "tick"
	KindLevel1               Kind = "level1"
	KindNews                 Kind = "news"
	KindMarketDepth          Kind = "marketdepth"
	KindOrderLogEntry        Kind = "orderlog.entry"
)

// IsControl reports whether messages of this kind gate the processor: no
// control message runs concurrently with any other in-flight message.
func (k Kind) IsControl() bool {
	switch k {
	case KindConnect, KindDisconnect, KindReset:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}
