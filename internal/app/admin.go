package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

// ArtworkSource provides a complete card library in pool order.
type ArtworkSource interface {
	Cards() ([]string, error)
}

// UploadProgress reports the library state after an upload.
type UploadProgress struct {
	Uploaded int
	Total    int
	Complete bool
}

// AdminService performs the one-time setup of the oracle and its card library.
type AdminService struct {
	store  ports.Store
	clock  ports.Clock
	logger *slog.Logger
}

func NewAdminService(store ports.Store, clock ports.Clock, logger *slog.Logger) *AdminService {
	return &AdminService{store: store, clock: clock, logger: logger}
}

// Initialize stores the oracle configuration. It can only succeed once.
func (a *AdminService) Initialize(ctx context.Context, authority, treasury domain.Identity, fee uint64) (domain.OracleState, error) {
	if err := domain.ValidateFee(fee); err != nil {
		return domain.OracleState{}, err
	}
	if authority.IsZero() || treasury.IsZero() {
		return domain.OracleState{}, fmt.Errorf("%w: authority and treasury are required", domain.ErrInvalidIdentity)
	}

	st := domain.OracleState{
		Authority:        authority,
		Treasury:         treasury,
		Fee:              fee,
		ArtworkVersion:   1,
		ArtworkUpdatedAt: a.clock.Now(),
	}
	if err := a.store.InitializeOracle(ctx, st); err != nil {
		return domain.OracleState{}, fmt.Errorf("initialize oracle: %w", err)
	}
	a.logger.InfoContext(ctx, "oracle initialized",
		"authority", authority.String(),
		"treasury", treasury.String(),
		"fee", fee,
	)
	return a.store.OracleState(ctx)
}

// UploadCards writes one batch of artwork starting at slot start. Only the
// oracle authority may upload.
func (a *AdminService) UploadCards(ctx context.Context, caller domain.Identity, start int, svgs []string) (UploadProgress, error) {
	st, err := a.store.OracleState(ctx)
	if err != nil {
		return UploadProgress{}, fmt.Errorf("load oracle: %w", err)
	}
	if caller != st.Authority {
		return UploadProgress{}, domain.ErrUnauthorized
	}
	if len(svgs) > domain.ArtworkBatchMax {
		return UploadProgress{}, fmt.Errorf("%w: %d entries, max %d", domain.ErrCardBatchTooLarge, len(svgs), domain.ArtworkBatchMax)
	}
	if start < 0 || start > domain.PoolSize {
		return UploadProgress{}, fmt.Errorf("%w: start %d", domain.ErrInvalidCardID, start)
	}
	if start+len(svgs) > domain.PoolSize {
		return UploadProgress{}, fmt.Errorf("%w: batch ends at %d", domain.ErrCardBatchTooLarge, start+len(svgs))
	}
	for i, svg := range svgs {
		if len(svg) > domain.ArtworkMaxBytes {
			return UploadProgress{}, fmt.Errorf("%w: card %d is %d bytes", domain.ErrArtworkTooLarge, start+i, len(svg))
		}
	}

	n, err := a.store.PutArtwork(ctx, start, svgs, a.clock.Now())
	if err != nil {
		return UploadProgress{}, fmt.Errorf("store artwork: %w", err)
	}

	p := UploadProgress{Uploaded: n, Total: domain.PoolSize, Complete: n == domain.PoolSize}
	if p.Complete {
		a.logger.InfoContext(ctx, "card library complete, oracle ready", "cards", n)
	} else {
		a.logger.InfoContext(ctx, "card batch uploaded", "start", start, "count", len(svgs), "progress", n)
	}
	return p, nil
}

// SeedArtwork uploads every card from src in batches as the authority.
func (a *AdminService) SeedArtwork(ctx context.Context, caller domain.Identity, src ArtworkSource) (UploadProgress, error) {
	cards, err := src.Cards()
	if err != nil {
		return UploadProgress{}, fmt.Errorf("load artwork source: %w", err)
	}
	if len(cards) != domain.PoolSize {
		return UploadProgress{}, fmt.Errorf("artwork source has %d cards, want %d", len(cards), domain.PoolSize)
	}

	var p UploadProgress
	for start := 0; start < len(cards); start += domain.ArtworkBatchMax {
		end := min(start+domain.ArtworkBatchMax, len(cards))
		if p, err = a.UploadCards(ctx, caller, start, cards[start:end]); err != nil {
			return p, fmt.Errorf("upload batch at %d: %w", start, err)
		}
	}
	return p, nil
}
