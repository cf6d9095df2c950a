// Package dedup suppresses repeated "attach part to job" intents.
//
// A Guard layers three checks, cheapest first:
//   - local: an in-process TTL cache of recently admitted keys
//   - in-flight: an optional cross-process claim (Redis lock) held while the attach runs
//   - store: a lookup for a job_parts row with the same key created inside the window
//
// Suppression is not an error; callers inspect Decision.Suppressed.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-shop-api/internal/clock"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

const (
	DefaultWindow    = 5 * time.Second
	DefaultCacheSize = 4096
	MinWindow        = 500 * time.Millisecond
	MaxWindow        = 30 * time.Second
)

// Key identifies one attach intent.
type Key struct {
	JobID    uuid.UUID
	ItemID   uuid.UUID
	Quantity int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d", k.JobID, k.ItemID, k.Quantity)
}

func (k Key) storageKey() storage.JobPartKey {
	return storage.JobPartKey{JobID: k.JobID, ItemID: k.ItemID, Quantity: k.Quantity}
}

// Layer names the check that suppressed a call.
type Layer string

const (
	LayerNone     Layer = ""
	LayerLocal    Layer = "local"
	LayerInFlight Layer = "in_flight"
	LayerStore    Layer = "store"
)

// Decision is the outcome of Admit.
type Decision struct {
	Suppressed bool
	Layer      Layer
	// Existing is the matching row when the store layer suppressed the call.
	Existing *models.JobPartLink
}

// Outcome tells Finish what the admitted attach did.
type Outcome int

const (
	// OutcomeCreated means a row was written (or may have been).
	OutcomeCreated Outcome = iota
	// OutcomeNotCreated means nothing was written, so an identical retry must be let through.
	OutcomeNotCreated
)

// RecentFinder is the store-side lookup; storage.JobPartRepository satisfies it.
type RecentFinder interface {
	FindRecent(ctx context.Context, key storage.JobPartKey, since time.Time) (*models.JobPartLink, error)
}

// Guard is safe for concurrent use.
type Guard struct {
	window    time.Duration
	cacheSize int
	clock     clock.Clock
	locker    Locker
	store     RecentFinder
	log       *logrus.Logger

	mu     sync.Mutex
	local  *expirable.LRU[Key, time.Time]
	claims map[Key]Claim
}

type Option func(*Guard)

// WithWindow sets the suppression window shared by all layers.
func WithWindow(d time.Duration) Option {
	return func(g *Guard) { g.window = d }
}

func WithClock(c clock.Clock) Option {
	return func(g *Guard) { g.clock = c }
}

// WithLocker enables the in-flight layer.
func WithLocker(l Locker) Option {
	return func(g *Guard) { g.locker = l }
}

// WithStore enables the store layer.
func WithStore(s RecentFinder) Option {
	return func(g *Guard) { g.store = s }
}

// WithCacheSize bounds the number of keys held by the local layer.
func WithCacheSize(size int) Option {
	return func(g *Guard) { g.cacheSize = size }
}

// New builds a guard. The window is clamped to [MinWindow, MaxWindow].
func New(opts ...Option) *Guard {
	g := &Guard{
		window: DefaultWindow,
		clock:  clock.Real(),
		log:    logger.Get(),
		claims: map[Key]Claim{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.window = clampWindow(g.window)
	if g.cacheSize <= 0 {
		g.cacheSize = DefaultCacheSize
	}
	g.local = expirable.NewLRU[Key, time.Time](g.cacheSize, nil, g.window)
	return g
}

func clampWindow(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultWindow
	case d < MinWindow:
		return MinWindow
	case d > MaxWindow:
		return MaxWindow
	}
	return d
}

// Window returns the effective suppression window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Admit decides whether the attach identified by key may proceed. An admitted call must be
// followed by Finish with the same key.
func (g *Guard) Admit(ctx context.Context, key Key) (Decision, error) {
	now := g.clock.Now()

	if g.admitLocal(key, now) {
		g.log.WithFields(logrus.Fields{"key": key.String(), "layer": LayerLocal}).Debug("duplicate attach suppressed")
		return Decision{Suppressed: true, Layer: LayerLocal}, nil
	}

	if g.locker != nil {
		claim, ok, err := g.locker.Claim(ctx, "dedup:"+key.String(), g.window)
		switch {
		case err != nil:
			// Proceed without the claim; the store layer still runs.
			g.log.WithFields(logrus.Fields{"key": key.String()}).Warn("could not claim attach; proceeding without in-flight lock: " + err.Error())
		case !ok:
			g.log.WithFields(logrus.Fields{"key": key.String(), "layer": LayerInFlight}).Debug("duplicate attach suppressed")
			return Decision{Suppressed: true, Layer: LayerInFlight}, nil
		default:
			g.mu.Lock()
			g.claims[key] = claim
			g.mu.Unlock()
		}
	}

	if g.store != nil {
		existing, err := g.store.FindRecent(ctx, key.storageKey(), now.Add(-g.window))
		switch {
		case err == nil:
			g.release(ctx, key)
			g.log.WithFields(logrus.Fields{"key": key.String(), "layer": LayerStore, "job_part_id": existing.ID}).Debug("duplicate attach suppressed")
			return Decision{Suppressed: true, Layer: LayerStore, Existing: existing}, nil
		case !errors.Is(err, storage.ErrNotFound):
			g.release(ctx, key)
			g.Forget(key)
			return Decision{}, fmt.Errorf("recent job part lookup: %w", err)
		}
	}

	return Decision{}, nil
}

// admitLocal reports whether key was admitted within the window, recording it otherwise.
func (g *Guard) admitLocal(key Key, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.local.Get(key); ok && now.Sub(last) < g.window {
		return true
	}
	g.local.Add(key, now)
	return false
}

// Finish releases the in-flight claim. OutcomeNotCreated also clears the local entry.
func (g *Guard) Finish(ctx context.Context, key Key, outcome Outcome) {
	g.release(ctx, key)
	if outcome == OutcomeNotCreated {
		g.Forget(key)
	}
}

// Forget clears the local entry for key so the next identical attach is evaluated afresh.
func (g *Guard) Forget(key Key) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.local.Remove(key)
}

func (g *Guard) release(ctx context.Context, key Key) {
	g.mu.Lock()
	claim, ok := g.claims[key]
	delete(g.claims, key)
	g.mu.Unlock()

	if !ok {
		return
	}
	if err := claim.Release(ctx); err != nil {
		g.log.WithFields(logrus.Fields{"key": key.String()}).Warn("failed to release attach claim: " + err.Error())
	}
}
