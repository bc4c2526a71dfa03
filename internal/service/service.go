package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/logging"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository"
)

// Publisher receives domain events. *queue.Publisher and queue.Nop satisfy it.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Stores repository.Stores
	Tx     repository.Transactor
	Events Publisher
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = queue.Nop{}
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// publish sends ev and only logs a failure; events never fail a request.
func (d Deps) publish(ctx context.Context, ev queue.Event) {
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.WithError(err).WithField("event", ev.Type).Warn("event publish failed")
	}
}
