package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Consumer appends every CareRecordEvent from CareRecordQueue to out, one
// line per event.
type Consumer struct {
	url string

	mu  sync.Mutex
	out io.Writer
}

func NewConsumer(url string, out io.Writer) *Consumer { return &Consumer{url: url, out: out} }

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// (1s up to 30s) whenever the broker is unreachable or the channel closes.
// It always returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	log := logrus.WithField("component", "care-record-consumer")
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("dial broker failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// sleep waits for d and reports false when ctx ended first.
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
		logrus.WithError(err).Warn("care-record-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(CareRecordQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, CareRecordQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				logrus.WithError(err).Warn("care-record-consumer: rejecting message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage decodes one delivery and appends its audit line.
func (c *Consumer) handleMessage(body []byte) error {
	var ev CareRecordEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.Action == "" || ev.RecordID == "" {
		return errors.New("event without kind, action or record id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, FormatEventLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatEventLine renders ev as one audit log line.
func FormatEventLine(ev CareRecordEvent) string {
	return fmt.Sprintf("[%s] %s %s | record_id=%s | patient_id=%d | recorder=%q\n",
		ev.OccurredAt, ev.Kind, ev.Action, ev.RecordID, ev.PatientID, ev.Recorder)
}
