package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/venuelink/venuelink/internal/protocol"
)

func TestAdapterControlDefaults(t *testing.T) {
	sink := &captureSink{}
	a := NewAdapter(sink, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, a.Handle(ctx, &protocol.ConnectMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindConnect},
	}))
	require.NoError(t, a.Handle(ctx, &protocol.DisconnectMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindDisconnect},
	}))
	require.NoError(t, a.Handle(ctx, &protocol.ResetMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindReset},
	}))

	assert.Equal(t, 1, sink.count(protocol.KindConnected))
	assert.Equal(t, 1, sink.count(protocol.KindDisconnected))
	assert.Equal(t, 1, sink.count(protocol.KindResetDone))
}

func TestAdapterUnsupportedDefaults(t *testing.T) {
	a := NewAdapter(&captureSink{}, zaptest.NewLogger(t))
	ctx := context.Background()

	cases := []protocol.Message{
		&protocol.SecurityLookupMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindSecurityLookup}},
		&protocol.PortfolioLookupMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindPortfolioLookup}},
		&protocol.BoardLookupMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindBoardLookup}},
		&protocol.OrderStatusMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderStatus}},
		&protocol.OrderRegisterMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderRegister}},
		&protocol.OrderReplaceMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderReplace}},
		&protocol.OrderPairReplaceMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderPairReplace}},
		&protocol.OrderCancelMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderCancel}},
		&protocol.OrderGroupCancelMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindOrderGroupCancel}},
		&protocol.TimeMessage{BaseMessage: protocol.BaseMessage{Kind: protocol.KindTime}},
	}
	for _, msg := range cases {
		t.Run(msg.MessageKind().String(), func(t *testing.T) {
			err := a.Handle(ctx, msg)
			require.Error(t, err)

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, msg.MessageKind(), unsupported.Kind)
		})
	}
}

func TestAdapterGenericIsIgnored(t *testing.T) {
	sink := &captureSink{}
	a := NewAdapter(sink, zaptest.NewLogger(t))

	require.NoError(t, a.Handle(context.Background(), &protocol.GenericMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindGeneric},
	}))
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.msgs)
}

func TestAdapterOn(t *testing.T) {
	sink := &captureSink{}
	a := NewAdapter(sink, zaptest.NewLogger(t))

	t.Run("OverrideTakesEffect", func(t *testing.T) {
		a.On(protocol.KindTime, func(ctx context.Context, msg protocol.Message) error {
			a.Sink().Emit(&protocol.TimeResultMessage{
				BaseMessage: protocol.BaseMessage{Kind: protocol.KindTimeResult, TransID: msg.TransactionID()},
			})
			return nil
		})
		require.NoError(t, a.Handle(context.Background(), &protocol.TimeMessage{
			BaseMessage: protocol.BaseMessage{Kind: protocol.KindTime, TransID: 3},
		}))
		require.Len(t, sink.byKind(protocol.KindTimeResult), 1)
	})

	t.Run("MarketDataOverridePanics", func(t *testing.T) {
		assert.Panics(t, func() {
			a.On(protocol.KindMarketData, func(ctx context.Context, msg protocol.Message) error { return nil })
		})
	})

	t.Run("NilHandlerPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			a.On(protocol.KindTime, nil)
		})
	})
}

func TestAdapterUnknownKind(t *testing.T) {
	a := NewAdapter(&captureSink{}, zaptest.NewLogger(t))

	err := a.Handle(context.Background(), &protocol.GenericMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.Kind("made.up")},
	})
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}
