// Package publisher fans committed store changes out to every registered sink.
package publisher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	apperrors "github.com/frostdev-ops/home-planner-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

var errAlreadyRegistered = errors.New("publisher already registered")

// Action is the kind of change applied to a record
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent describes one committed write
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}

// Publisher receives change events
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Func adapts a function to Publisher
type Func func(ctx context.Context, event ChangeEvent) error

func (f Func) Publish(ctx context.Context, event ChangeEvent) error {
	return f(ctx, event)
}

// Registry holds the named publishers. Each publisher sits behind its own
// circuit breaker, so a sink that keeps failing is skipped for a while
// instead of slowing down every write.
type Registry struct {
	mu         sync.RWMutex
	publishers map[string]*entry
	log        *logrus.Logger

	// MaxFailures and ResetTimeout configure the breakers of publishers
	// registered afterwards
	MaxFailures  int
	ResetTimeout time.Duration
}

type entry struct {
	publisher Publisher
	breaker   *apperrors.CircuitBreaker
}

// NewRegistry creates an empty registry
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		publishers:   make(map[string]*entry),
		log:          log,
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
	}
}

// Register adds a publisher under a unique name
func (r *Registry) Register(name string, p Publisher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.publishers[name]; ok {
		return errAlreadyRegistered
	}
	r.publishers[name] = &entry{
		publisher: p,
		breaker: apperrors.NewCircuitBreaker(apperrors.CircuitBreakerConfig{
			Name:         "publisher:" + name,
			MaxFailures:  r.MaxFailures,
			ResetTimeout: r.ResetTimeout,
			Logger:       r.log,
		}),
	}
	return nil
}

// Unregister removes a publisher
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.publishers, name)
}

// Names lists the registered publishers in name order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.publishers))
	for name := range r.publishers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publish delivers event to every publisher. Failures are logged and do not
// stop delivery to the remaining publishers.
func (r *Registry) Publish(ctx context.Context, event ChangeEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	r.mu.RLock()
	targets := make(map[string]*entry, len(r.publishers))
	for name, e := range r.publishers {
		targets[name] = e
	}
	r.mu.RUnlock()

	for name, e := range targets {
		err := e.breaker.Execute(func() error {
			return e.publisher.Publish(ctx, event)
		})
		if errors.Is(err, apperrors.ErrCircuitOpen) {
			r.log.WithFields(logrus.Fields{
				"publisher":  name,
				"collection": event.Collection,
			}).Debug("publisher circuit open, change skipped")
			continue
		}
		if err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"publisher":  name,
				"collection": event.Collection,
				"action":     event.Action,
				"id":         event.ID,
			}).Error("failed to publish change")
			continue
		}
		r.log.WithFields(logrus.Fields{
			"publisher":  name,
			"collection": event.Collection,
		}).Debug("published change")
	}
}
