package domain_test

import (
	"errors"
	"testing"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

func TestDraw_EndToEnd(t *testing.T) {
	u := testIdentity(0xAB)
	req := domain.DrawRequest{Identity: u, Now: 1000, Round: 5, Sequence: 1}

	f1 := domain.Draw(req)
	if f1.Seed != domain.DeriveSeed(u, 1000, 5, 1) {
		t.Fatal("fortune seed does not match DeriveSeed")
	}
	if f1.Cards != domain.DrawThree(f1.Seed) {
		t.Fatal("fortune cards do not match DrawThree(seed)")
	}
	if f1.Rarity != domain.Classify(f1.Cards) {
		t.Fatal("fortune rarity does not match Classify(cards)")
	}
	if f1.ID != 1 || f1.Owner != u || f1.Timestamp != 1000 || f1.Round != 5 {
		t.Errorf("unexpected audit fields: %+v", f1)
	}
	if again := domain.Draw(req); again != f1 {
		t.Error("draw is not reproducible")
	}

	req.Sequence = 2
	f2 := domain.Draw(req)
	if f2.Seed == f1.Seed {
		t.Fatal("different sequence numbers produced the same seed")
	}
	if f2.Cards == f1.Cards {
		t.Log("different seeds happened to produce the same triple")
	}
}

func TestRequestDraw_GatesOnCooldown(t *testing.T) {
	id := testIdentity(1)
	usage := domain.NewUsageRecord(id)

	now := int64(20 * domain.SecondsPerDay)
	if _, err := domain.RequestDraw(&usage, domain.DrawRequest{Identity: id, Now: now, Sequence: 0}); err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if _, err := domain.RequestDraw(&usage, domain.DrawRequest{Identity: id, Now: now, Sequence: 1}); err != nil {
		t.Fatalf("second draw: %v", err)
	}
	_, err := domain.RequestDraw(&usage, domain.DrawRequest{Identity: id, Now: now + 60, Sequence: 2})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if usage.TotalDraws != 2 {
		t.Errorf("expected 2 committed draws, got %d", usage.TotalDraws)
	}
}

func TestParseIdentity(t *testing.T) {
	id := testIdentity(0x5c)
	got, err := domain.ParseIdentity(id.String())
	if err != nil || got != id {
		t.Fatalf("round trip failed: %v %v", got, err)
	}
	if _, err := domain.ParseIdentity("1234"); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestValidateFee(t *testing.T) {
	for _, fee := range []uint64{domain.MinFee, 10_000_000, domain.MaxFee} {
		if err := domain.ValidateFee(fee); err != nil {
			t.Errorf("fee %d: unexpected error %v", fee, err)
		}
	}
	for _, fee := range []uint64{0, domain.MinFee - 1, domain.MaxFee + 1} {
		if err := domain.ValidateFee(fee); !errors.Is(err, domain.ErrFeeOutOfRange) {
			t.Errorf("fee %d: expected ErrFeeOutOfRange, got %v", fee, err)
		}
	}
}
