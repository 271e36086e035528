package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/venuelink/venuelink/internal/protocol"
)

func mdMsg(tx int64, dt protocol.DataType) *protocol.MarketDataMessage {
	return &protocol.MarketDataMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindMarketData, TransID: tx},
		SecurityID:  "BTC-USD",
		DataType:    dt,
		IsSubscribe: true,
	}
}

func TestDispatchRejectsEmptyWindow(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		from time.Time
		to   time.Time
	}{
		{"FutureWindow", base.Add(time.Hour), time.Time{}},
		{"FutureBoundedWindow", base.Add(time.Hour), base.Add(2 * time.Hour)},
		{"InvertedWindow", base.Add(-time.Hour), base.Add(-2 * time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &captureSink{}
			d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
			d.now = func() time.Time { return base }

			invoked := false
			d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
				invoked = true
				return nil
			})

			msg := mdMsg(7, protocol.DataTypeTicks)
			msg.From = tc.from
			msg.To = tc.to

			require.NoError(t, d.Dispatch(context.Background(), msg))
			assert.False(t, invoked, "sub-handler must not run for an empty window")

			resps := sink.byKind(protocol.KindSubscriptionResponse)
			require.Len(t, resps, 1)
			resp := resps[0].(*protocol.SubscriptionResponseMessage)
			assert.True(t, resp.NoData)
			assert.Equal(t, int64(7), resp.TransID)
		})
	}
}

func TestDispatchValidWindowReachesHandler(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sink := &captureSink{}
	d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
	d.now = func() time.Time { return base }

	var got *protocol.MarketDataMessage
	d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
		got = msg
		return nil
	})

	msg := mdMsg(8, protocol.DataTypeTicks)
	msg.From = base.Add(-time.Hour)
	msg.To = base

	require.NoError(t, d.Dispatch(context.Background(), msg))
	require.NotNil(t, got)
	assert.Equal(t, "BTC-USD", got.SecurityID)
	assert.Empty(t, sink.byKind(protocol.KindSubscriptionResponse))
}

func TestDispatchUnsupportedDataTypes(t *testing.T) {
	d := NewSubscriptionDispatcher(&captureSink{}, zaptest.NewLogger(t))

	// No sub-handlers attached: every data type is rejected.
	for _, dt := range []protocol.DataType{
		protocol.DataTypeNews,
		protocol.DataTypeLevel1,
		protocol.DataTypeTicks,
		protocol.DataTypeMarketDepth,
		protocol.DataTypeOrderLog,
		protocol.DataTypeTimeFrameCandles,
		protocol.DataTypeTickCandles,
		protocol.DataTypeVolumeCandles,
		protocol.DataTypeRangeCandles,
	} {
		t.Run(string(dt), func(t *testing.T) {
			err := d.Dispatch(context.Background(), mdMsg(1, dt))
			require.Error(t, err)

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, dt, unsupported.DataType)
			assert.Contains(t, err.Error(), string(dt))
		})
	}
}

func TestDispatchRouting(t *testing.T) {
	d := NewSubscriptionDispatcher(&captureSink{}, zaptest.NewLogger(t))

	var served []protocol.DataType
	record := func(ctx context.Context, msg *protocol.MarketDataMessage) error {
		served = append(served, msg.DataType)
		return nil
	}
	d.OnNews(record)
	d.OnLevel1(record)
	d.OnTicks(record)
	d.OnMarketDepth(record)
	d.OnOrderLog(record)
	d.OnTimeFrameCandles(record)
	d.OnOtherCandles(record)

	requests := []protocol.DataType{
		protocol.DataTypeNews,
		protocol.DataTypeLevel1,
		protocol.DataTypeTicks,
		protocol.DataTypeMarketDepth,
		protocol.DataTypeOrderLog,
		protocol.DataTypeTimeFrameCandles,
		protocol.DataTypeTickCandles,
		protocol.DataTypeVolumeCandles,
		protocol.DataTypeRangeCandles,
	}
	for _, dt := range requests {
		require.NoError(t, d.Dispatch(context.Background(), mdMsg(2, dt)))
	}
	assert.Equal(t, requests, served)
}

func TestDispatchCancellationOutcome(t *testing.T) {
	t.Run("SharedSignalFinishes", func(t *testing.T) {
		sink := &captureSink{}
		d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
		d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
			<-ctx.Done()
			return ctx.Err()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, d.Dispatch(ctx, mdMsg(9, protocol.DataTypeTicks)))
		require.Len(t, sink.byKind(protocol.KindSubscriptionFinished), 1)
		assert.Equal(t, int64(9), sink.byKind(protocol.KindSubscriptionFinished)[0].TransactionID())
	})

	t.Run("UnrelatedCancellationReRaised", func(t *testing.T) {
		sink := &captureSink{}
		d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
		d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
			// Cancellation without the shared signal: a nested timeout fired.
			return context.Canceled
		})

		err := d.Dispatch(context.Background(), mdMsg(10, protocol.DataTypeTicks))
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sink.byKind(protocol.KindSubscriptionFinished))
	})

	t.Run("DeadlineIsAFailure", func(t *testing.T) {
		sink := &captureSink{}
		d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
		d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
			return context.DeadlineExceeded
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := d.Dispatch(ctx, mdMsg(11, protocol.DataTypeTicks))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, sink.byKind(protocol.KindSubscriptionFinished))
	})

	t.Run("HandlerErrorReRaised", func(t *testing.T) {
		sink := &captureSink{}
		d := NewSubscriptionDispatcher(sink, zaptest.NewLogger(t))
		want := errors.New("feed dropped")
		d.OnTicks(func(ctx context.Context, msg *protocol.MarketDataMessage) error {
			return want
		})

		err := d.Dispatch(context.Background(), mdMsg(12, protocol.DataTypeTicks))
		require.ErrorIs(t, err, want)
	})
}
