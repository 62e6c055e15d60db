// Package service is the calling shell around the collection engine. It
// serializes every operation on the collection, validates boundary input,
// and persists the whole snapshot after each mutation.
package service

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/metrics"
	"github.com/scentlog/scentlog-server/internal/query"
	"github.com/scentlog/scentlog-server/internal/reference"
	"github.com/scentlog/scentlog-server/internal/scoring"
	"github.com/scentlog/scentlog-server/internal/search"
	"github.com/scentlog/scentlog-server/internal/store"
	"github.com/scentlog/scentlog-server/internal/validation"
)

// Options tunes derived values.
type Options struct {
	LowSampleThreshold int
	PresenceThreshold  int
}

// CollectionService owns the in-memory collection.
//
// Every operation takes mu. Mutations work on a deep copy and only replace
// the live snapshot once the store has accepted it, so a failed save leaves
// the previous state intact.
type CollectionService struct {
	store     store.Snapshotter
	index     *search.Index
	metrics   metrics.Recorder
	validator *validation.Validator
	logger    *logger.Logger
	opts      Options
	now       func() time.Time

	mu   sync.Mutex
	snap *domain.Snapshot
	refs *reference.Store
}

// NewCollectionService creates the service. index and rec may be nil; the
// collection is loaded lazily on first use or explicitly through Load.
func NewCollectionService(
	st store.Snapshotter,
	index *search.Index,
	rec metrics.Recorder,
	v *validation.Validator,
	log *logger.Logger,
	opts Options,
) *CollectionService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	if v == nil {
		v = validation.New()
	}
	if log == nil {
		log = logger.Discard()
	}
	if opts.LowSampleThreshold <= 0 {
		opts.LowSampleThreshold = scoring.DefaultLowSampleThreshold
	}
	if opts.PresenceThreshold <= 0 {
		opts.PresenceThreshold = query.DefaultPresenceThreshold
	}
	return &CollectionService{
		store:     st,
		index:     index,
		metrics:   rec,
		validator: v,
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
}

// Load reads the collection from the store, seeds default reference values
// into an empty collection and rebuilds the search index.
func (s *CollectionService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *CollectionService) load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domainerrors.Internal("load collection").WithCause(err)
	}
	if snap == nil {
		snap = &domain.Snapshot{}
	}

	refs := reference.FromData(snap.References)
	seeded, err := refs.SeedDefaults()
	if err != nil {
		return domainerrors.Internal("seed reference tables").WithCause(err)
	}
	if seeded {
		snap.References = refs.Data()
		snap.UpdatedAt = s.now()
		if err := s.store.Save(ctx, snap); err != nil {
			return domainerrors.Internal("persist seeded collection").WithCause(err)
		}
		s.logger.Info("seeded default reference values")
	}

	s.snap = snap
	s.refs = refs
	s.rebuildIndex()
	s.reportSize()

	s.logger.Info("collection loaded",
		"perfumes", len(snap.Perfumes),
		"brands", refs.Brands.Len(),
		"tags", refs.Tags.Len(),
	)
	return nil
}

func (s *CollectionService) ensureLoaded(ctx context.Context) error {
	if s.snap != nil {
		return nil
	}
	return s.load(ctx)
}

// read runs fn against the live state under the lock. fn must not mutate.
func (s *CollectionService) read(ctx context.Context, fn func(snap *domain.Snapshot, refs *reference.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	return fn(s.snap, s.refs)
}

// PerfumeCount returns the size of the collection.
func (s *CollectionService) PerfumeCount(ctx context.Context) (int, error) {
	var n int
	err := s.read(ctx, func(snap *domain.Snapshot, _ *reference.Store) error {
		n = len(snap.Perfumes)
		return nil
	})
	return n, err
}

// txn is the working copy of one mutation.
type txn struct {
	snap       *domain.Snapshot
	refs       *reference.Store
	now        time.Time
	reindex    map[string]bool
	removed    []string
	reindexAll bool
}

func (t *txn) perfume(perfumeID string) (*domain.Perfume, error) {
	if p := t.snap.FindPerfume(perfumeID); p != nil {
		return p, nil
	}
	return nil, domainerrors.NotFoundf("perfume %s not found", perfumeID)
}

// touch stamps p as modified and queues it for reindexing.
func (t *txn) touch(p *domain.Perfume) {
	p.UpdatedAt = t.now
	t.reindex[p.ID] = true
}

// mutate applies fn to a copy of the collection, persists the copy and then
// makes it live.
func (s *CollectionService) mutate(ctx context.Context, op string, fn func(tx *txn) error) (err error) {
	defer func() { s.metrics.RecordMutation(op, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	tx := &txn{
		snap:    s.snap.Clone(),
		refs:    s.refs.Clone(),
		now:     s.now(),
		reindex: make(map[string]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}

	tx.snap.References = tx.refs.Data()
	tx.snap.UpdatedAt = tx.now
	if err := s.store.Save(ctx, tx.snap); err != nil {
		s.logger.WithError(err).Error("failed to persist collection", "operation", op)
		return domainerrors.Internal("persist collection").WithCause(err)
	}

	s.snap = tx.snap
	s.refs = tx.refs
	s.syncIndex(tx)
	s.reportSize()
	return nil
}

// syncIndex brings the search index in line with a committed mutation.
// The index is derived state, so failures are logged and not returned.
func (s *CollectionService) syncIndex(tx *txn) {
	if s.index == nil {
		return
	}
	if tx.reindexAll {
		s.rebuildIndex()
		return
	}
	for _, perfumeID := range tx.removed {
		if err := s.index.Delete(perfumeID); err != nil {
			s.logger.WithPerfume(perfumeID).WithError(err).Warn("failed to remove perfume from search index")
		}
	}
	for _, perfumeID := range slices.Sorted(maps.Keys(tx.reindex)) {
		p := s.snap.FindPerfume(perfumeID)
		if p == nil {
			continue
		}
		if err := s.index.Index(search.FromPerfume(p, s.refs)); err != nil {
			s.logger.WithPerfume(perfumeID).WithError(err).Warn("failed to index perfume")
		}
	}
}

func (s *CollectionService) rebuildIndex() {
	if s.index == nil {
		return
	}
	docs := make([]*search.Document, len(s.snap.Perfumes))
	for i, p := range s.snap.Perfumes {
		docs[i] = search.FromPerfume(p, s.refs)
	}
	if err := s.index.Rebuild(docs); err != nil {
		s.logger.WithError(err).Warn("failed to rebuild search index")
	}
}

func (s *CollectionService) reportSize() {
	sizes := make(map[string]int, len(domain.RefKinds()))
	for _, kind := range domain.RefKinds() {
		if t, err := s.refs.Table(kind); err == nil {
			sizes[kind.String()] = t.Len()
		}
	}
	s.metrics.SetCollectionSize(len(s.snap.Perfumes), sizes)
}

func (s *CollectionService) engine(refs *reference.Store) *query.Engine {
	return query.NewEngine(refs, s.opts.PresenceThreshold)
}
