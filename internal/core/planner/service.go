// Package planner applies catalog and house writes to the record store,
// enforces cross-collection rules and announces every committed change.
package planner

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/frostdev-ops/home-planner-go/internal/core/cache"
	"github.com/frostdev-ops/home-planner-go/internal/core/compat"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/shopping"
	"github.com/frostdev-ops/home-planner-go/internal/core/topology"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Derived view names
const (
	ViewShoppingList  = "shopping_list"
	ViewCompatibility = "compatibility"
	ViewTopology      = "topology"
)

// Publisher receives committed changes
type Publisher interface {
	Publish(ctx context.Context, event publisher.ChangeEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, publisher.ChangeEvent) {}

// Service is the write path of the planner
type Service struct {
	repos       *database.Repositories
	events      Publisher
	metrics     metrics.Collector
	backgrounds *floorplan.Processor
	views       *cache.Views
	log         *logrus.Logger

	// mu serializes read-check-write sequences over rooms and the house config
	mu sync.Mutex
}

// NewService creates a planner service. A nil publisher or collector disables
// the respective concern.
func NewService(repos *database.Repositories, events Publisher, collector metrics.Collector, backgrounds *floorplan.Processor, log *logrus.Logger) *Service {
	if events == nil {
		events = noopPublisher{}
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{
		repos:       repos,
		events:      events,
		metrics:     collector,
		backgrounds: backgrounds,
		views:       cache.NewViews(),
		log:         log,
	}
}

// publish drops the cached views before announcing the change, so subscribers
// refreshing on the event never read a view older than the write
func (s *Service) publish(ctx context.Context, collection string, action publisher.Action, id string) {
	s.views.Invalidate()
	s.events.Publish(ctx, publisher.ChangeEvent{Collection: collection, Action: action, ID: id})
}

// observe records a store operation and passes err through
func (s *Service) observe(collection, op string, timer metrics.Timer, err error) error {
	s.metrics.RecordStoreOperation(collection, op, err == nil, timer.Elapsed())
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"collection": collection,
			"operation":  op,
		}).Debug("store operation failed")
	}
	return err
}

// Snapshot reads every collection the derived views depend on
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	snap := &types.Snapshot{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Devices, err = s.repos.Device.List(ctx, "", repositories.Query{})
		return err
	})
	g.Go(func() (err error) {
		snap.Floors, err = s.repos.Floor.List(ctx, repositories.Query{})
		return err
	})
	g.Go(func() (err error) {
		snap.Rooms, err = s.repos.Room.List(ctx, repositories.Query{})
		return err
	})
	g.Go(func() (err error) {
		snap.Templates, err = s.repos.Template.List(ctx, repositories.Query{})
		return err
	})
	g.Go(func() error {
		house, err := s.repos.House.Get(ctx)
		if err != nil {
			return err
		}
		snap.House = *house
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ShoppingList builds the shopping list of the current house
func (s *Service) ShoppingList(ctx context.Context) (shopping.List, error) {
	v, err := s.views.Get(ctx, ViewShoppingList, func(ctx context.Context) (interface{}, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		timer := metrics.StartTimer()
		defer func() { s.metrics.RecordViewComputation(ViewShoppingList, timer.Elapsed()) }()
		return shopping.Build(snap), nil
	})
	if err != nil {
		return shopping.List{}, err
	}
	return v.(shopping.List), nil
}

// Compatibility reports the missing gateways of every room
func (s *Service) Compatibility(ctx context.Context) (compat.Report, error) {
	v, err := s.views.Get(ctx, ViewCompatibility, func(ctx context.Context) (interface{}, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		timer := metrics.StartTimer()
		defer func() { s.metrics.RecordViewComputation(ViewCompatibility, timer.Elapsed()) }()
		return compat.Resolve(snap), nil
	})
	if err != nil {
		return compat.Report{}, err
	}
	return v.(compat.Report), nil
}

// Topology builds the network graph with the given rooms hidden
func (s *Service) Topology(ctx context.Context, hidden map[string]bool) (topology.Graph, error) {
	ids := make([]string, 0, len(hidden))
	for id, ok := range hidden {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	key := ViewTopology + ":" + strings.Join(ids, ",")
	v, err := s.views.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		timer := metrics.StartTimer()
		defer func() { s.metrics.RecordViewComputation(ViewTopology, timer.Elapsed()) }()
		return topology.Build(snap, hidden), nil
	})
	if err != nil {
		return topology.Graph{}, err
	}
	return v.(topology.Graph), nil
}

// CacheStats reports the derived view cache counters
func (s *Service) CacheStats() cache.Stats {
	return s.views.Stats()
}

// View computes a derived view by name. Unknown names return ok=false.
func (s *Service) View(ctx context.Context, name string) (interface{}, bool, error) {
	var (
		v   interface{}
		err error
	)
	switch name {
	case ViewShoppingList:
		v, err = s.ShoppingList(ctx)
	case ViewCompatibility:
		v, err = s.Compatibility(ctx)
	case ViewTopology:
		v, err = s.Topology(ctx, nil)
	default:
		return nil, false, nil
	}
	return v, true, err
}
