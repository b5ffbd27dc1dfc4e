package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	calls int
	fail  func(call int) error
}

func (h *countingHandler) Topic() string { return "credit.requests" }

func (h *countingHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.fail == nil {
		return nil
	}
	return h.fail(h.calls)
}

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	c, err := NewConsumer(append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop(context.Background()) })
	return c
}

func TestConsumerRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{fail: func(call int) error {
		if call < 3 {
			return errors.New("transient")
		}
		return nil
	}}

	attempts, err := c.handle(h, delivery{topic: h.Topic(), km: kafka.Message{Value: []byte("{}")}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConsumerGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{fail: func(int) error { return errors.New("down") }}

	attempts, err := c.handle(h, delivery{topic: h.Topic()})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, attempts)
}

func TestConsumerSkipsRetryOnPermanent(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{fail: func(int) error { return Permanent(errors.New("bad json")) }}

	attempts, err := c.handle(h, delivery{topic: h.Topic()})
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, attempts)
}

func TestConsumerHandlerPanicIsPermanent(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{fail: func(int) error { panic("boom") }}

	attempts, err := c.handle(h, delivery{topic: h.Topic()})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, attempts)
}

func TestConsumerHookErrorStopsRetries(t *testing.T) {
	c := newTestConsumer(t, WithConsumerHook(MaxPayloadHook(2)))
	h := &countingHandler{}

	attempts, err := c.handle(h, delivery{topic: h.Topic(), km: kafka.Message{Value: []byte("too long")}})
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 1, attempts)
	assert.Zero(t, h.calls)
}

func TestConsumerRejectsDuplicateHandler(t *testing.T) {
	c := newTestConsumer(t)
	first := &countingHandler{}
	c.RegisterHandler(first)
	c.RegisterHandler(&countingHandler{})
	assert.Same(t, first, c.handlers["credit.requests"])
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c := newTestConsumer(t)
	assert.EqualError(t, c.Start(), "no handlers registered")
}

func TestWorkerForPinsPartition(t *testing.T) {
	c := newTestConsumer(t, WithConsumerWorkers(8))
	for p := 0; p < 32; p++ {
		w := c.workerFor("credit.requests", p)
		assert.Equal(t, w, c.workerFor("credit.requests", p))
		assert.GreaterOrEqual(t, w, 0)
		assert.Less(t, w, 8)
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	done    []int64
	calls   map[int64]int
	decide  func(offset int64, call int) error
	entered chan struct{}
}

func (h *recordingHandler) Topic() string { return "credit.requests" }

func (h *recordingHandler) Handle(_ context.Context, b []byte) error {
	var off int64
	_, _ = fmt.Sscan(string(b), &off)

	h.mu.Lock()
	if h.calls == nil {
		h.calls = map[int64]int{}
	}
	h.calls[off]++
	call := h.calls[off]
	h.mu.Unlock()

	if off == 1 {
		// Give a second worker time to grab a later message if routing is wrong.
		time.Sleep(5 * time.Millisecond)
	}
	if h.decide != nil {
		if err := h.decide(off, call); err != nil {
			return err
		}
	}
	h.mu.Lock()
	h.done = append(h.done, off)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) snapshot() ([]int64, map[int64]int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	calls := make(map[int64]int, len(h.calls))
	for k, v := range h.calls {
		calls[k] = v
	}
	return append([]int64(nil), h.done...), calls
}

func queueOffsets(c *Consumer, partition int, offsets ...int64) {
	for _, off := range offsets {
		c.dispatch(delivery{topic: "credit.requests", km: kafka.Message{
			Partition: partition,
			Offset:    off,
			Value:     []byte(strconv.FormatInt(off, 10)),
		}})
	}
}

func TestConsumerHandlesPartitionInOrder(t *testing.T) {
	c := newTestConsumer(t, WithConsumerWorkers(4))
	h := &recordingHandler{}
	c.RegisterHandler(h)

	queueOffsets(c, 0, 1, 2, 3)
	c.startWorkers()

	require.Eventually(t, func() bool { d, _ := h.snapshot(); return len(d) == 3 }, time.Second, time.Millisecond)
	done, _ := h.snapshot()
	assert.Equal(t, []int64{1, 2, 3}, done)
}

func TestConsumerTransientFailureHoldsPartition(t *testing.T) {
	c := newTestConsumer(t, WithConsumerWorkers(4))
	h := &recordingHandler{decide: func(off int64, call int) error {
		if off == 1 && call <= 4 {
			return errors.New("scoring backend down")
		}
		return nil
	}}
	c.RegisterHandler(h)

	queueOffsets(c, 0, 1, 2)
	c.startWorkers()

	require.Eventually(t, func() bool { d, _ := h.snapshot(); return len(d) == 2 }, 2*time.Second, time.Millisecond)
	done, calls := h.snapshot()
	assert.Equal(t, []int64{1, 2}, done)
	assert.Equal(t, 5, calls[1])
	assert.Equal(t, 1, calls[2])
}

func TestConsumerPermanentFailureWithoutDLQIsSkipped(t *testing.T) {
	c := newTestConsumer(t)
	h := &recordingHandler{decide: func(off int64, _ int) error {
		if off == 1 {
			return Permanent(errors.New("bad json"))
		}
		return nil
	}}
	c.RegisterHandler(h)

	queueOffsets(c, 0, 1, 2)
	c.startWorkers()

	require.Eventually(t, func() bool { d, _ := h.snapshot(); return len(d) == 1 }, time.Second, time.Millisecond)
	done, calls := h.snapshot()
	assert.Equal(t, []int64{2}, done)
	assert.Equal(t, 1, calls[1])
}

func TestConsumerConfigDefaults(t *testing.T) {
	c := newTestConsumer(t, WithConsumerWorkers(0), WithConsumerBufferSize(-1), WithConsumerGroupID(""))
	assert.Equal(t, 1, c.cfg.WorkerCount)
	assert.Equal(t, 10, c.cfg.BufferSize)
	assert.Equal(t, "altcredit", c.cfg.GroupID)
	assert.Nil(t, c.dlq)
}
