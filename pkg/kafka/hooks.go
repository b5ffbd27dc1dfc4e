package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"AltCredit/pkg/logger"
)

// Delivery is one message as seen by hooks and the handler. Hooks may
// replace Data before the handler runs.
type Delivery struct {
	Topic   string
	Message kafka.Message
	Data    []byte
}

// ConsumerHook runs around every handling attempt. An error from
// BeforeHandle skips the handler and sends the message down the failure
// path (OnError, DLQ, commit) without retries.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, d *Delivery) (context.Context, error)
	AfterHandle(ctx context.Context, d *Delivery, err error)
	OnError(ctx context.Context, d *Delivery, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ *Delivery) (context.Context, error) {
	return ctx, nil
}
func (NoopHook) AfterHandle(context.Context, *Delivery, error) {}
func (NoopHook) OnError(context.Context, *Delivery, error)     {}

// HookError classifies a hook failure, e.g. ERR_PANIC or ERR_PAYLOAD_TOO_LARGE.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs adapts plain functions. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, *Delivery) (context.Context, error)
	After  func(context.Context, *Delivery, error)
	Err    func(context.Context, *Delivery, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, d *Delivery) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, d)
}

func (h HookFuncs) AfterHandle(ctx context.Context, d *Delivery, err error) {
	if h.After != nil {
		h.After(ctx, d, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, d *Delivery, err error) {
	if h.Err != nil {
		h.Err(ctx, d, err)
	}
}

// HookChain runs Before hooks in order and After hooks in reverse. A
// panicking hook becomes an ERR_PANIC HookError in BeforeHandle and is
// swallowed elsewhere.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain ignores nil hooks.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	c := &HookChain{}
	for _, h := range hooks {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
	return c
}

func (c *HookChain) BeforeHandle(ctx context.Context, d *Delivery) (context.Context, error) {
	for _, h := range c.hooks {
		next, err := safeBefore(h, ctx, d)
		if err != nil {
			c.OnError(ctx, d, err)
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, d *Delivery, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		guard(func() { h.AfterHandle(ctx, d, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, d *Delivery, err error) {
	for _, h := range c.hooks {
		guard(func() { h.OnError(ctx, d, err) })
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, d *Delivery) (next context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = ctx, &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, d)
}

func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type ctxKey int

const (
	startTimeKey ctxKey = iota
	traceIDKey
)

// TraceHeader carries the correlation id on request messages.
const TraceHeader = "trace_id"

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey, t)
}

// StartTime returns when the current attempt began.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(startTimeKey).(time.Time)
	return t, ok
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// Header returns the first value of header key, or "".
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook stores the trace id and start time in the context and logs
// failed attempts with their elapsed time.
func LoggingHook(log *logger.Logger) ConsumerHook {
	if log == nil {
		log = logger.Nop()
	}
	return HookFuncs{
		Before: func(ctx context.Context, d *Delivery) (context.Context, error) {
			ctx = WithStartTime(ctx, time.Now())
			return WithTraceID(ctx, Header(d.Message, TraceHeader)), nil
		},
		After: func(ctx context.Context, d *Delivery, err error) {
			if err == nil {
				return
			}
			fields := []logger.Field{
				logger.String("topic", d.Topic),
				logger.Int("partition", d.Message.Partition),
				logger.Int64("offset", d.Message.Offset),
				logger.Error(err),
			}
			if id := TraceID(ctx); id != "" {
				fields = append(fields, logger.String("trace_id", id))
			}
			if started, ok := StartTime(ctx); ok {
				fields = append(fields, logger.Duration("elapsed", time.Since(started)))
			}
			log.Warn("kafka handler attempt failed", fields...)
		},
	}
}

// MaxPayloadHook rejects messages larger than limit bytes. Zero disables it.
func MaxPayloadHook(limit int) ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, d *Delivery) (context.Context, error) {
			if limit > 0 && len(d.Data) > limit {
				return ctx, &HookError{
					Code: "ERR_PAYLOAD_TOO_LARGE",
					Err:  fmt.Errorf("%d bytes exceeds %d", len(d.Data), limit),
				}
			}
			return ctx, nil
		},
	}
}
