package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer listens to the seating.allocated queue and appends one line per
// committed run to <Dir>/allocation.log.
type Consumer struct {
	URL string
	Dir string
	Log *zap.Logger
}

// NewConsumer creates a consumer writing below dir ("logs" when empty).
func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{URL: url, Dir: dir, Log: log}
}

// Run connects to the broker, declares the queue and consumes until ctx is
// cancelled.  Lost connections are retried with exponential backoff.  A
// message that cannot be handled is rejected without requeue so the loop
// keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("allocation consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("allocation consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("allocation consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(AllocatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, AllocatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.Log.Error("allocation consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev AllocationCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, "allocation.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev AllocationCompletedEvent) string {
	zones := make([]string, 0, len(ev.ZoneTypes))
	for _, z := range ev.ZoneTypes {
		zones = append(zones, fmt.Sprintf("%s:%s/%s", z.ZoneType, z.Strategy, z.Status))
	}
	unseated := make([]string, 0, len(ev.UnseatedHosts))
	for _, h := range ev.UnseatedHosts {
		unseated = append(unseated, strconv.FormatUint(h, 10))
	}
	return fmt.Sprintf("[%s] Allocation committed | run_id=%s | event_id=%d | event=%q | status=%s | assigned=%d | cost=%d | zones=[%s] | unseated_hosts=[%s]\n",
		ev.CompletedAt, ev.RunID, ev.EventID, ev.EventName, ev.Status, ev.Assigned, ev.Cost,
		strings.Join(zones, ","), strings.Join(unseated, ","))
}
