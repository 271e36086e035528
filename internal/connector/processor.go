package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
	"github.com/venuelink/venuelink/pkg/metrics"
)

// DefaultMaxParallelMessages is the parallelism bound used until Configure
// is called.
const DefaultMaxParallelMessages = 5

// Processor is the scheduler between the message bus and the per-kind
// handlers. It owns the pending queue, enforces the control/data ordering
// invariant and the parallelism bound, and converts handler failures into
// outbound error responses. Nothing a handler does can propagate back to the
// caller of Enqueue.
//
// Ordering rule: Connect, Disconnect and Reset are control messages. A
// control message never overlaps any other in-flight message; it drains the
// running data handlers first (cancelling them for Disconnect/Reset) and
// blocks new dispatches while it runs. Data messages start in arrival order
// and run concurrently up to the configured bound.
type Processor struct {
	logger  *zap.Logger
	sink    Sink
	handler HandlerFunc

	mu          sync.Mutex
	cond        *sync.Cond
	queue       []protocol.Message
	inFlight    int
	maxParallel int
	closed      bool

	lifetime context.Context
	cancel   context.CancelFunc

	loopDone chan struct{}
}

// NewProcessor builds a processor around the given dispatch function and
// starts its admission loop. The handler is usually (*Adapter).Handle.
func NewProcessor(handler HandlerFunc, sink Sink, logger *zap.Logger) *Processor {
	p := &Processor{
		logger:      logger,
		sink:        sink,
		handler:     handler,
		maxParallel: DefaultMaxParallelMessages,
		loopDone:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.lifetime, p.cancel = context.WithCancel(context.Background())
	go p.run()
	return p
}

// Configure sets the concurrency bound for data messages. It may be changed
// at any time and applies to messages admitted afterwards; handlers already
// running are not throttled retroactively. A non-positive bound is a
// programming error and is rejected loudly.
func (p *Processor) Configure(maxParallel int) error {
	if maxParallel <= 0 {
		return fmt.Errorf("max parallel messages must be positive, got %d", maxParallel)
	}
	p.mu.Lock()
	p.maxParallel = maxParallel
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

// Enqueue adds a message to the pending queue. It returns false only for a
// nil message or after the processor has been permanently shut down; there
// is no queue-size backpressure.
func (p *Processor) Enqueue(msg protocol.Message) bool {
	if msg == nil {
		metrics.RejectedMessages.Inc()
		p.logger.Warn("rejecting nil message")
		return false
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		metrics.RejectedMessages.Inc()
		return false
	}
	p.queue = append(p.queue, msg)
	metrics.PendingMessages.Set(float64(len(p.queue)))
	p.mu.Unlock()
	p.cond.Broadcast()
	return true
}

// Close permanently shuts the processor down: the shared cancellation signal
// fires, in-flight handlers wind down (reported as finished, not as errors),
// and subsequent Enqueue calls return false. Close blocks until the
// admission loop and all handlers have stopped.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	cancel := p.cancel
	p.mu.Unlock()
	cancel()
	p.cond.Broadcast()
	<-p.loopDone
}

// run is the single admission loop. Only it removes messages from the queue,
// so dispatch start order always follows arrival order.
func (p *Processor) run() {
	defer close(p.loopDone)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.drainLocked()
			p.mu.Unlock()
			return
		}

		head := p.queue[0]
		if head.MessageKind().IsControl() {
			if !p.admitControl(head) {
				return
			}
		} else {
			if !p.admitData(head) {
				return
			}
		}
	}
}

// admitControl is entered with the state lock held and releases it. The
// control message starts only after every in-flight handler has drained and
// runs to completion before the loop admits anything else. Returns false
// when the processor shut down while waiting.
func (p *Processor) admitControl(msg protocol.Message) bool {
	kind := msg.MessageKind()

	// Disconnect and Reset invalidate connectivity state; fire the shared
	// signal so suspended handlers wind down instead of holding the drain.
	if kind == protocol.KindDisconnect || kind == protocol.KindReset {
		p.cancel()
	}

	for p.inFlight > 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		p.drainLocked()
		p.mu.Unlock()
		return false
	}

	p.queue = p.queue[1:]
	metrics.PendingMessages.Set(float64(len(p.queue)))

	// The control handler itself gets a live signal.
	if p.lifetime.Err() != nil {
		p.lifetime, p.cancel = context.WithCancel(context.Background())
	}
	ctx := p.lifetime
	p.mu.Unlock()

	p.invoke(ctx, msg)
	return true
}

// admitData is entered with the state lock held and releases it. Returns
// false when the processor shut down while waiting for a slot.
func (p *Processor) admitData(msg protocol.Message) bool {
	for p.inFlight >= p.maxParallel && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		p.drainLocked()
		p.mu.Unlock()
		return false
	}

	p.queue = p.queue[1:]
	p.inFlight++
	metrics.PendingMessages.Set(float64(len(p.queue)))
	metrics.InFlightMessages.Set(float64(p.inFlight))
	ctx := p.lifetime
	p.mu.Unlock()

	go func() {
		p.invoke(ctx, msg)
		p.mu.Lock()
		p.inFlight--
		metrics.InFlightMessages.Set(float64(p.inFlight))
		p.mu.Unlock()
		p.cond.Broadcast()
	}()
	return true
}

// drainLocked waits for in-flight handlers to finish after shutdown. The
// state lock must be held.
func (p *Processor) drainLocked() {
	for p.inFlight > 0 {
		p.cond.Wait()
	}
}

// invoke runs one handler and applies the failure contract: panics and
// errors become outbound error responses; a cancellation that correlates
// with the shared signal becomes a finished event instead.
func (p *Processor) invoke(ctx context.Context, msg protocol.Message) {
	kind := msg.MessageKind()
	start := time.Now()
	err := p.safeHandle(ctx, msg)
	metrics.HandlerLatency.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.MessagesProcessed.WithLabelValues(kind.String(), "success").Inc()
		return
	}

	if isCancellation(err) && ctx.Err() != nil {
		if tx := msg.TransactionID(); tx != 0 {
			p.sink.Emit(&protocol.SubscriptionFinishedMessage{
				BaseMessage: protocol.BaseMessage{Kind: protocol.KindSubscriptionFinished, TransID: tx},
			})
		}
		metrics.MessagesProcessed.WithLabelValues(kind.String(), "finished").Inc()
		p.logger.Debug("handler wound down on caller-requested stop",
			zap.String("message", protocol.Describe(msg)))
		return
	}

	if kind == protocol.KindReset {
		// Reset handlers are documented must-not-fail; reaching this point
		// is a connector defect, not a runtime condition.
		p.logger.Error("reset handler violated no-fail contract", zap.Error(err))
	} else {
		p.logger.Warn("handler failed",
			zap.String("message", protocol.Describe(msg)),
			zap.Error(err))
	}

	metrics.MessagesProcessed.WithLabelValues(kind.String(), "error").Inc()
	p.sink.Emit(&protocol.ErrorMessage{
		BaseMessage:  protocol.BaseMessage{Kind: protocol.KindError, TransID: msg.TransactionID()},
		OriginalKind: kind,
		Error:        err.Error(),
	})
}

func (p *Processor) safeHandle(ctx context.Context, msg protocol.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return p.handler(ctx, msg)
}
