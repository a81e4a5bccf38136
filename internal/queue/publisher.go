package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// redialCooldown is how long Publish fails fast after the broker could not
// be reached.
const redialCooldown = 5 * time.Second

// ErrBrokerDown is returned while the publisher waits out redialCooldown.
var ErrBrokerDown = errors.New("broker unavailable")

// Publisher sends CareRecordEvents over one lazily opened channel.  A failed
// publish drops the connection so the next call dials again.  Safe for
// concurrent use.
type Publisher struct {
	url string

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
	now       func() time.Time
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url, now: time.Now} }

// encodeEvent builds a persistent JSON message for ev.
func encodeEvent(ev CareRecordEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind + "." + ev.Action,
		Body:         body,
	}, nil
}

// channel returns the open channel, dialing with a few retries when there
// is none.  Callers hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.now().Before(p.downUntil) {
		return nil, ErrBrokerDown
	}
	p.reset()
	err := retry.Do(func() error {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return err
		}
		if _, err := ch.QueueDeclare(CareRecordQueue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return err
		}
		p.conn, p.ch = conn, ch
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		p.downUntil = p.now().Add(redialCooldown)
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	p.downUntil = time.Time{}
	return p.ch, nil
}

// Publish sends ev to CareRecordQueue.
func (p *Publisher) Publish(ctx context.Context, ev CareRecordEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", CareRecordQueue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	logrus.WithFields(logrus.Fields{"kind": ev.Kind, "action": ev.Action, "record_id": ev.RecordID}).Debug("care record event published")
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
