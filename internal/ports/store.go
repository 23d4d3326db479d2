package ports

import (
	"context"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

// FeeTransfer is the bookkeeping entry for a fee charged on an accepted draw.
type FeeTransfer struct {
	FortuneID uint64
	Payer     domain.Identity
	Treasury  domain.Identity
	Amount    uint64
	Timestamp int64
}

// UnitOfWork is the transactional view a single draw operates on. Writes made
// through it become visible only if the enclosing function returns nil.
type UnitOfWork interface {
	OracleState(ctx context.Context) (domain.OracleState, error)
	// AllocateSequence returns the current fortune counter and advances it.
	AllocateSequence(ctx context.Context) (uint64, error)
	// LoadUsage returns domain.NewUsageRecord for identities never seen before.
	LoadUsage(ctx context.Context, id domain.Identity) (domain.UsageRecord, error)
	SaveUsage(ctx context.Context, u domain.UsageRecord) error
	SaveFortune(ctx context.Context, f domain.Fortune) error
	RecordFee(ctx context.Context, t FeeTransfer) error
}

// Ledger owns the oracle configuration, usage records, fortunes and fees.
type Ledger interface {
	WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	// InitializeOracle stores the one-time configuration.
	// It returns domain.ErrAlreadyInitialized on a second call.
	InitializeOracle(ctx context.Context, st domain.OracleState) error
	OracleState(ctx context.Context) (domain.OracleState, error)
}

// FortuneReader serves read-only lookups of persisted draws.
type FortuneReader interface {
	GetFortune(ctx context.Context, id uint64) (domain.Fortune, error)
	// ListFortunes returns the newest fortunes owned by owner first.
	ListFortunes(ctx context.Context, owner domain.Identity, limit int) ([]domain.Fortune, error)
	GetUsage(ctx context.Context, id domain.Identity) (domain.UsageRecord, error)
}

// ArtworkStore holds the decorative artwork of the 78 cards.
type ArtworkStore interface {
	ArtworkCount(ctx context.Context) (int, error)
	IsFullyPopulated(ctx context.Context) (bool, error)
	// PutArtwork writes svgs into consecutive slots starting at start and returns
	// the number of populated slots afterwards. Filling the last slot marks the
	// oracle's artwork as complete.
	PutArtwork(ctx context.Context, start int, svgs []string, now int64) (int, error)
	GetArtwork(ctx context.Context, id domain.CardID) (string, error)
}

// Store bundles every persistence port behind one backend.
type Store interface {
	Ledger
	FortuneReader
	ArtworkStore
	Close() error
}
