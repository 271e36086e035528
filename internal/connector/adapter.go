package connector

import (
	"context"

	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
)

// Sink receives outbound response/event messages on their way back to the
// message bus. Implementations must be safe for concurrent invocation: the
// processor does not serialize calls to it.
type Sink interface {
	Emit(msg protocol.Message)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(msg protocol.Message)

func (f SinkFunc) Emit(msg protocol.Message) { f(msg) }

// HandlerFunc processes one inbound protocol message. It either completes
// normally, having emitted zero or more responses through the sink, or
// returns a described error; it must not leave a transaction without an
// eventual terminal response.
type HandlerFunc func(ctx context.Context, msg protocol.Message) error

// Adapter holds the per-kind handler table a concrete connector customizes.
// Lookup and order management kinds default to a shared unsupported handler;
// control kinds default to immediate acknowledgment; market data requests
// always route through the subscription dispatcher.
type Adapter struct {
	logger *zap.Logger
	sink   Sink
	table  map[protocol.Kind]HandlerFunc
	subs   *SubscriptionDispatcher
}

// NewAdapter creates an adapter with default handlers for every kind.
func NewAdapter(sink Sink, logger *zap.Logger) *Adapter {
	a := &Adapter{
		logger: logger,
		sink:   sink,
		table:  make(map[protocol.Kind]HandlerFunc),
	}
	a.subs = NewSubscriptionDispatcher(sink, logger)

	a.table[protocol.KindConnect] = a.defaultConnect
	a.table[protocol.KindDisconnect] = a.defaultDisconnect
	a.table[protocol.KindReset] = a.defaultReset
	a.table[protocol.KindMarketData] = a.subs.Dispatch
	a.table[protocol.KindGeneric] = a.defaultGeneric

	for _, kind := range []protocol.Kind{
		protocol.KindSecurityLookup,
		protocol.KindPortfolioLookup,
		protocol.KindBoardLookup,
		protocol.KindOrderStatus,
		protocol.KindOrderRegister,
		protocol.KindOrderReplace,
		protocol.KindOrderPairReplace,
		protocol.KindOrderCancel,
		protocol.KindOrderGroupCancel,
		protocol.KindTime,
	} {
		a.table[kind] = unsupported
	}

	return a
}

// On replaces the handler for one message kind. Market data cannot be
// overridden as a monolithic handler; use Subscriptions to attach per-type
// sub-handlers. Misuse is a programming error and panics.
func (a *Adapter) On(kind protocol.Kind, h HandlerFunc) {
	if kind == protocol.KindMarketData {
		panic("connector: market data handlers are attached through Subscriptions, not On")
	}
	if h == nil {
		panic("connector: nil handler for kind " + kind.String())
	}
	a.table[kind] = h
}

// Subscriptions returns the dispatcher used to attach per-data-type
// subscription handlers.
func (a *Adapter) Subscriptions() *SubscriptionDispatcher {
	return a.subs
}

// Sink returns the outbound sink so concrete handlers can emit responses.
func (a *Adapter) Sink() Sink {
	return a.sink
}

// Handle looks the message kind up in the table and invokes its handler.
func (a *Adapter) Handle(ctx context.Context, msg protocol.Message) error {
	h, ok := a.table[msg.MessageKind()]
	if !ok {
		return NewUnsupportedKind(msg.MessageKind())
	}
	return h(ctx, msg)
}

func (a *Adapter) defaultConnect(ctx context.Context, msg protocol.Message) error {
	a.sink.Emit(&protocol.ConnectedMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindConnected},
	})
	return nil
}

func (a *Adapter) defaultDisconnect(ctx context.Context, msg protocol.Message) error {
	a.sink.Emit(&protocol.DisconnectedMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindDisconnected},
	})
	return nil
}

func (a *Adapter) defaultReset(ctx context.Context, msg protocol.Message) error {
	a.sink.Emit(&protocol.ResetDoneMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindResetDone},
	})
	return nil
}

func (a *Adapter) defaultGeneric(ctx context.Context, msg protocol.Message) error {
	a.logger.Debug("ignoring generic message", zap.String("message", protocol.Describe(msg)))
	return nil
}

// unsupported is the shared default for every lookup and order management
// kind a concrete connector did not implement.
func unsupported(ctx context.Context, msg protocol.Message) error {
	return NewUnsupportedKind(msg.MessageKind())
}
