package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

func TestInitialize(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	if _, err := f.admin.Initialize(ctx, authority, treasury, 999_999); !errors.Is(err, domain.ErrFeeOutOfRange) {
		t.Errorf("expected ErrFeeOutOfRange, got %v", err)
	}
	if _, err := f.admin.Initialize(ctx, domain.Identity{}, treasury, 10_000_000); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}

	st, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Authority != authority || st.Fee != 10_000_000 || st.FortuneCounter != 0 || st.ArtworkVersion != 1 {
		t.Errorf("unexpected state: %+v", st)
	}

	if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestUploadCards_Validation(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	tests := []struct {
		name   string
		caller domain.Identity
		start  int
		svgs   []string
		want   error
	}{
		{"not authority", identity(1), 0, []string{"<svg/>"}, domain.ErrUnauthorized},
		{"batch too large", authority, 0, make([]string, 11), domain.ErrCardBatchTooLarge},
		{"start past pool", authority, 79, nil, domain.ErrInvalidCardID},
		{"batch past pool", authority, 75, []string{"a", "b", "c", "d"}, domain.ErrCardBatchTooLarge},
		{"artwork too large", authority, 0, []string{strings.Repeat("x", domain.ArtworkMaxBytes+1)}, domain.ErrArtworkTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.admin.UploadCards(ctx, tt.caller, tt.start, tt.svgs); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUploadCards_Progress(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	p, err := f.admin.UploadCards(ctx, authority, 70, []string{"a", "b", "c", "d", "e", "f", "g", "h"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if p.Uploaded != 8 || p.Complete {
		t.Errorf("unexpected progress: %+v", p)
	}

	p, err = f.admin.SeedArtwork(ctx, authority, fullSource())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !p.Complete || p.Uploaded != domain.PoolSize {
		t.Errorf("unexpected progress: %+v", p)
	}
	st, err := f.store.OracleState(ctx)
	if err != nil || !st.ArtworkComplete {
		t.Errorf("expected artwork complete flag, got %+v, %v", st, err)
	}
}

func TestSeedArtwork_RejectsShortSource(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := f.admin.SeedArtwork(ctx, authority, staticSource{cards: []string{"x"}}); err == nil {
		t.Fatal("expected error for incomplete source")
	}
}
