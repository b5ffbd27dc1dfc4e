package logger

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	defaultFlushInterval  = 30 * time.Second
	defaultCountThreshold = 100
	publishTimeout        = 10 * time.Second
)

// Publisher ships a flushed batch. pkg/kafka.Producer satisfies it.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // distinct entries that force a flush
	Topic          string
	Service        string // stamped on every batch
	IncludeWarn    bool   // collect warn as well as error
	Publisher      Publisher
	OnError        func(error) // publish failures; dropped when nil
}

// AggregatedLogEntry is one distinct log line and how often it repeated.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the payload written to the collector topic.
type LogBatch struct {
	Service   string               `json:"service,omitempty"`
	FlushedAt time.Time            `json:"flushed_at"`
	Entries   []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates log lines by level, message, caller and fields
// and publishes them in batches.
type LogCollector struct {
	cfg     CollectionConfig
	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry
	stop    chan struct{}
	once    sync.Once
	loop    sync.WaitGroup
	sends   sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = defaultFlushInterval
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = defaultCountThreshold
	}

	c := &LogCollector{
		cfg:     cfg,
		entries: make(map[uint64]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}
	c.loop.Add(1)
	go c.run()
	return c
}

func (c *LogCollector) accepts(level string) bool {
	return level == "error" || (level == "warn" && c.cfg.IncludeWarn)
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	if !c.accepts(level) {
		return
	}
	now := time.Now().UTC()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []AggregatedLogEntry
	if len(c.entries) >= c.cfg.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	if batch != nil {
		c.sends.Add(1)
		go func() {
			defer c.sends.Done()
			c.publish(batch)
		}()
	}
}

// entryKey hashes fields in key order so map iteration does not split
// identical lines.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	for _, s := range []string{level, message, caller} {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		b, err := json.Marshal(fields[k])
		if err != nil {
			b = []byte(strconv.Quote(err.Error()))
		}
		_, _ = h.Write(b)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func (c *LogCollector) run() {
	defer c.loop.Done()
	t := time.NewTicker(c.cfg.TimeInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.Flush()
		case <-c.stop:
			c.Flush()
			return
		}
	}
}

// Flush publishes whatever is pending and waits for it.
func (c *LogCollector) Flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	if batch != nil {
		c.publish(batch)
	}
}

func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	c.entries = make(map[uint64]*AggregatedLogEntry)
	return out
}

func (c *LogCollector) publish(entries []AggregatedLogEntry) {
	if c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, LogBatch{
		Service:   c.cfg.Service,
		FlushedAt: time.Now().UTC(),
		Entries:   entries,
	})
	if err != nil && c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}

// Close stops the flush loop after a final flush and waits for in-flight
// threshold publishes.
func (c *LogCollector) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.loop.Wait()
		c.sends.Wait()
	})
}
