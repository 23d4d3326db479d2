// Package memory keeps the whole ledger in process memory. State is lost on
// restart; it backs tests and STORE=memory deployments.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

// Store implements ports.Store with maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	oracle   *domain.OracleState
	usage    map[domain.Identity]domain.UsageRecord
	fortunes map[uint64]domain.Fortune
	fees     []ports.FeeTransfer
	artwork  [domain.PoolSize]string
}

var _ ports.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		usage:    make(map[domain.Identity]domain.UsageRecord),
		fortunes: make(map[uint64]domain.Fortune),
	}
}

func (s *Store) Close() error { return nil }

// WithinUnitOfWork runs fn with the store locked. Writes are staged and only
// applied when fn returns nil.
func (s *Store) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow ports.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := &unitOfWork{
		store: s,
		usage: make(map[domain.Identity]domain.UsageRecord),
	}
	if s.oracle != nil {
		st := *s.oracle
		uow.oracle = &st
	}
	if err := fn(ctx, uow); err != nil {
		return err
	}
	uow.apply()
	return nil
}

func (s *Store) InitializeOracle(_ context.Context, st domain.OracleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oracle != nil {
		return domain.ErrAlreadyInitialized
	}
	st.ArtworkComplete = s.artworkCountLocked() == domain.PoolSize
	s.oracle = &st
	return nil
}

func (s *Store) OracleState(_ context.Context) (domain.OracleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oracle == nil {
		return domain.OracleState{}, domain.ErrNotInitialized
	}
	return *s.oracle, nil
}

func (s *Store) GetFortune(_ context.Context, id uint64) (domain.Fortune, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fortunes[id]
	if !ok {
		return domain.Fortune{}, fmt.Errorf("%w: %d", domain.ErrFortuneNotFound, id)
	}
	return f, nil
}

func (s *Store) ListFortunes(_ context.Context, owner domain.Identity, limit int) ([]domain.Fortune, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Fortune
	for _, f := range s.fortunes {
		if f.Owner == owner {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b domain.Fortune) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetUsage(_ context.Context, id domain.Identity) (domain.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.usage[id]; ok {
		return u, nil
	}
	return domain.NewUsageRecord(id), nil
}

// FeeTransfers returns a copy of every recorded fee transfer in charge order.
func (s *Store) FeeTransfers() []ports.FeeTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fees)
}

func (s *Store) ArtworkCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artworkCountLocked(), nil
}

func (s *Store) IsFullyPopulated(ctx context.Context) (bool, error) {
	n, err := s.ArtworkCount(ctx)
	return n == domain.PoolSize, err
}

func (s *Store) PutArtwork(_ context.Context, start int, svgs []string, now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oracle == nil {
		return 0, domain.ErrNotInitialized
	}
	if start < 0 || start+len(svgs) > domain.PoolSize {
		return 0, fmt.Errorf("%w: slots [%d,%d)", domain.ErrInvalidCardID, start, start+len(svgs))
	}
	copy(s.artwork[start:], svgs)

	n := s.artworkCountLocked()
	s.oracle.ArtworkUpdatedAt = now
	if n == domain.PoolSize {
		s.oracle.ArtworkComplete = true
	}
	return n, nil
}

func (s *Store) GetArtwork(_ context.Context, id domain.CardID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !id.Valid() || s.artwork[id] == "" {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidCardID, id)
	}
	return s.artwork[id], nil
}

func (s *Store) artworkCountLocked() int {
	n := 0
	for _, a := range s.artwork {
		if a != "" {
			n++
		}
	}
	return n
}

// unitOfWork stages writes against a locked Store.
type unitOfWork struct {
	store    *Store
	oracle   *domain.OracleState
	usage    map[domain.Identity]domain.UsageRecord
	fortunes []domain.Fortune
	fees     []ports.FeeTransfer
}

func (u *unitOfWork) OracleState(_ context.Context) (domain.OracleState, error) {
	if u.oracle == nil {
		return domain.OracleState{}, domain.ErrNotInitialized
	}
	return *u.oracle, nil
}

func (u *unitOfWork) AllocateSequence(_ context.Context) (uint64, error) {
	if u.oracle == nil {
		return 0, domain.ErrNotInitialized
	}
	seq := u.oracle.FortuneCounter
	u.oracle.FortuneCounter++
	return seq, nil
}

func (u *unitOfWork) LoadUsage(_ context.Context, id domain.Identity) (domain.UsageRecord, error) {
	if rec, ok := u.usage[id]; ok {
		return rec, nil
	}
	if rec, ok := u.store.usage[id]; ok {
		return rec, nil
	}
	return domain.NewUsageRecord(id), nil
}

func (u *unitOfWork) SaveUsage(_ context.Context, rec domain.UsageRecord) error {
	u.usage[rec.Identity] = rec
	return nil
}

func (u *unitOfWork) SaveFortune(_ context.Context, f domain.Fortune) error {
	if _, ok := u.store.fortunes[f.ID]; ok {
		return fmt.Errorf("fortune %d already exists", f.ID)
	}
	u.fortunes = append(u.fortunes, f)
	return nil
}

func (u *unitOfWork) RecordFee(_ context.Context, t ports.FeeTransfer) error {
	u.fees = append(u.fees, t)
	return nil
}

func (u *unitOfWork) apply() {
	s := u.store
	if u.oracle != nil && s.oracle != nil {
		s.oracle.FortuneCounter = u.oracle.FortuneCounter
	}
	for id, rec := range u.usage {
		s.usage[id] = rec
	}
	for _, f := range u.fortunes {
		s.fortunes[f.ID] = f
	}
	s.fees = append(s.fees, u.fees...)
}
