// Package corpus derives the controlled vocabulary (room types and tag values) from the stored records.
package corpus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// defaultScanTimeout bounds one shared corpus scan.
const defaultScanTimeout = 10 * time.Second

// Scanner lists stored records without ranking.
type Scanner interface {
	ScanAll(ctx context.Context, limit int) ([]image.Hit, error)
}

// Snapshot is the vocabulary observed in one scan. Every list is sorted and distinct.
type Snapshot struct {
	RoomTypes        []string  `json:"room_types"`
	DesignThemes     []string  `json:"design_themes"`
	BudgetCategories []string  `json:"budget_categories"`
	SpaceTypes       []string  `json:"space_types"`
	Tags             []string  `json:"tags"`
	Records          int       `json:"records"`
	BuiltAt          time.Time `json:"built_at"`
}

// Accessor caches the snapshot for a TTL. Concurrent refreshes share one scan.
type Accessor struct {
	scan      Scanner
	ttl       time.Duration
	limit     int
	refreshes *prometheus.CounterVec
	now       func() time.Time

	scanTimeout time.Duration

	mu   sync.RWMutex
	snap *Snapshot
	sf   singleflight.Group
}

// New creates an accessor. ttl <= 0 disables caching.
// refreshes is a counter vec with label "result" ("ok"/"error"/"stale"), may be nil.
func New(scan Scanner, ttl time.Duration, limit int, refreshes *prometheus.CounterVec) *Accessor {
	if limit <= 0 {
		limit = 1000
	}
	return &Accessor{
		scan: scan, ttl: ttl, limit: limit, refreshes: refreshes, now: time.Now,
		scanTimeout: defaultScanTimeout,
	}
}

// Get returns the cached snapshot, rescanning when it has expired.
// A failed rescan serves the previous snapshot if there is one.
func (a *Accessor) Get(ctx context.Context) (Snapshot, error) {
	a.mu.RLock()
	snap := a.snap
	a.mu.RUnlock()
	if snap != nil && a.ttl > 0 && a.now().Sub(snap.BuiltAt) < a.ttl {
		return *snap, nil
	}

	// The shared scan outlives any single caller; each caller still honours its own ctx.
	ch := a.sf.DoChan("scan", func() (any, error) {
		scanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.scanTimeout)
		defer cancel()
		return a.refresh(scanCtx)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		if snap != nil {
			a.inc("stale")
			logger.FromContext(ctx).Warn("Tag corpus refresh failed, serving stale snapshot",
				zap.Time("built_at", snap.BuiltAt), zap.Error(err))
			return *snap, nil
		}
		a.inc("error")
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// RoomTypes returns the distinct room types currently stored.
func (a *Accessor) RoomTypes(ctx context.Context) ([]string, error) {
	snap, err := a.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.RoomTypes, nil
}

// Invalidate drops the cached snapshot.
func (a *Accessor) Invalidate() {
	a.mu.Lock()
	a.snap = nil
	a.mu.Unlock()
}

func (a *Accessor) refresh(ctx context.Context) (Snapshot, error) {
	hits, err := a.scan.ScanAll(ctx, a.limit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan tag corpus: %w", err)
	}
	snap := Build(hits, a.now())

	a.mu.Lock()
	a.snap = &snap
	a.mu.Unlock()
	a.inc("ok")

	logger.FromContext(ctx).Debug("Tag corpus refreshed",
		zap.Int("records", snap.Records), zap.Int("room_types", len(snap.RoomTypes)))
	return snap, nil
}

func (a *Accessor) inc(result string) {
	if a.refreshes != nil {
		a.refreshes.WithLabelValues(result).Inc()
	}
}

// Build collects the vocabulary of hits.
func Build(hits []image.Hit, at time.Time) Snapshot {
	rooms, themes, budgets, spaces, tags := newSet(), newSet(), newSet(), newSet(), newSet()
	for i := range hits {
		p := &hits[i].Payload
		if p.HasRoomType() {
			rooms.add(roomtype.Normalize(p.RoomType))
		}
		themes.add(p.DesignTheme)
		budgets.add(p.BudgetCategory)
		spaces.add(p.SpaceType)
		tags.add(p.AllValues()...)
	}
	return Snapshot{
		RoomTypes:        rooms.sorted(),
		DesignThemes:     themes.sorted(),
		BudgetCategories: budgets.sorted(),
		SpaceTypes:       spaces.sorted(),
		Tags:             tags.sorted(),
		Records:          len(hits),
		BuiltAt:          at,
	}
}

type set map[string]struct{}

func newSet() set { return make(set) }

func (s set) add(vals ...string) {
	for _, v := range vals {
		if v != "" && v != image.Unknown {
			s[v] = struct{}{}
		}
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
