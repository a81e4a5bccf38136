package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/queue"
)

// EventPublisher sends care-record events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CareRecordEvent) error
}

// EventCounter is told about every event handed to the publisher.
type EventCounter interface {
	EventPublished(kind, action string, err error)
}

// notifier publishes care-record events after a successful write.  A nil
// publisher disables events; a failed publish is logged and swallowed.
type notifier struct {
	pub     EventPublisher
	counter EventCounter
	now     func() time.Time
}

func newNotifier(pub EventPublisher, counter EventCounter) notifier {
	return notifier{pub: pub, counter: counter, now: time.Now}
}

func (n notifier) notify(rec model.CareRecord, action string) {
	if n.pub == nil {
		return
	}
	ev := queue.NewCareRecordEvent(rec, action, n.now())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := n.pub.Publish(ctx, ev)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":      ev.Kind,
			"action":    ev.Action,
			"record_id": ev.RecordID,
		}).Warn("publish care record event failed")
	}
	if n.counter != nil {
		n.counter.EventPublished(ev.Kind, ev.Action, err)
	}
}
