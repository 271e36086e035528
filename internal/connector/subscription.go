package connector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
)

// SubscriptionHandler serves one market data type. It emits data and the
// terminal subscription response through the adapter sink, or returns an
// error that the processor converts into an error response.
type SubscriptionHandler func(ctx context.Context, msg *protocol.MarketDataMessage) error

// SubscriptionDispatcher routes a market data request to exactly one of the
// seven data-type sub-handlers. Absent an override, every branch rejects the
// request as unsupported.
type SubscriptionDispatcher struct {
	logger *zap.Logger
	sink   Sink
	now    func() time.Time

	news             SubscriptionHandler
	level1           SubscriptionHandler
	ticks            SubscriptionHandler
	marketDepth      SubscriptionHandler
	orderLog         SubscriptionHandler
	timeFrameCandles SubscriptionHandler
	otherCandles     SubscriptionHandler
}

// NewSubscriptionDispatcher creates a dispatcher with no sub-handlers attached.
func NewSubscriptionDispatcher(sink Sink, logger *zap.Logger) *SubscriptionDispatcher {
	return &SubscriptionDispatcher{
		logger: logger,
		sink:   sink,
		now:    time.Now,
	}
}

func (d *SubscriptionDispatcher) OnNews(h SubscriptionHandler)        { d.news = h }
func (d *SubscriptionDispatcher) OnLevel1(h SubscriptionHandler)      { d.level1 = h }
func (d *SubscriptionDispatcher) OnTicks(h SubscriptionHandler)       { d.ticks = h }
func (d *SubscriptionDispatcher) OnMarketDepth(h SubscriptionHandler) { d.marketDepth = h }
func (d *SubscriptionDispatcher) OnOrderLog(h SubscriptionHandler)    { d.orderLog = h }

// OnTimeFrameCandles attaches the handler for candles built on a fixed
// interval; the requested interval rides on the message.
func (d *SubscriptionDispatcher) OnTimeFrameCandles(h SubscriptionHandler) { d.timeFrameCandles = h }

// OnOtherCandles attaches the handler for non-time-framed candle forms.
func (d *SubscriptionDispatcher) OnOtherCandles(h SubscriptionHandler) { d.otherCandles = h }

// Dispatch validates the request window, resolves the sub-handler and awaits
// it. A window entirely in the future, or inverted, yields an immediate
// no-data response without invoking any sub-handler.
func (d *SubscriptionDispatcher) Dispatch(ctx context.Context, msg protocol.Message) error {
	md, ok := msg.(*protocol.MarketDataMessage)
	if !ok {
		return fmt.Errorf("market data request has unexpected type %T", msg)
	}

	if md.IsSubscribe && !md.From.IsZero() {
		now := d.now()
		if md.From.After(now) || (!md.To.IsZero() && md.From.After(md.To)) {
			d.logger.Debug("rejecting empty market data window",
				zap.Time("from", md.From),
				zap.Time("to", md.To),
				zap.String("message", protocol.Describe(md)))
			d.sink.Emit(&protocol.SubscriptionResponseMessage{
				BaseMessage: protocol.BaseMessage{Kind: protocol.KindSubscriptionResponse, TransID: md.TransID},
				NoData:      true,
			})
			return nil
		}
	}

	h := d.resolve(md.DataType)
	if h == nil {
		return NewUnsupportedDataType(md.DataType)
	}

	if err := h(ctx, md); err != nil {
		// A cancellation that correlates with the shared signal is a
		// caller-requested stop, not a failure. Anything else, including a
		// cancellation from an unrelated internal timeout, is re-raised.
		if isCancellation(err) && ctx.Err() != nil {
			if md.TransID != 0 {
				d.sink.Emit(&protocol.SubscriptionFinishedMessage{
					BaseMessage: protocol.BaseMessage{Kind: protocol.KindSubscriptionFinished, TransID: md.TransID},
				})
			}
			return nil
		}
		return err
	}
	return nil
}

// resolve picks the sub-handler in the documented precedence order. A nil
// result means the data type is not served by this connector.
func (d *SubscriptionDispatcher) resolve(dt protocol.DataType) SubscriptionHandler {
	switch {
	case dt == protocol.DataTypeNews:
		return d.news
	case dt == protocol.DataTypeLevel1:
		return d.level1
	case dt == protocol.DataTypeTicks:
		return d.ticks
	case dt == protocol.DataTypeMarketDepth:
		return d.marketDepth
	case dt == protocol.DataTypeOrderLog:
		return d.orderLog
	case dt == protocol.DataTypeTimeFrameCandles:
		return d.timeFrameCandles
	case dt.IsOtherCandles():
		return d.otherCandles
	default:
		return nil
	}
}
