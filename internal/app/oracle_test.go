package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/randomtoy/cyberdamus-go/internal/adapters/storage/memory"
	"github.com/randomtoy/cyberdamus-go/internal/app"
	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

type fakeClock struct {
	now   int64
	round uint64
}

func (c *fakeClock) Now() int64    { return c.now }
func (c *fakeClock) Round() uint64 { return c.round }

type mockInterpreter struct {
	out   ports.InterpretOutput
	err   error
	calls int
	last  ports.InterpretInput
}

func (m *mockInterpreter) Interpret(_ context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	m.calls++
	m.last = in
	return m.out, m.err
}

type staticSource struct{ cards []string }

func (s staticSource) Cards() ([]string, error) { return s.cards, nil }

func fullSource() staticSource {
	cards := make([]string, domain.PoolSize)
	for i := range cards {
		cards[i] = "<svg/>"
	}
	return staticSource{cards: cards}
}

func identity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

var (
	authority = identity(0xA1)
	treasury  = identity(0xB2)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store  *memory.Store
	clock  *fakeClock
	oracle *app.OracleService
	admin  *app.AdminService
}

func newFixture(t *testing.T, interp ports.Interpreter, ready bool) fixture {
	t.Helper()
	f := fixture{
		store: memory.New(),
		clock: &fakeClock{now: 20*domain.SecondsPerDay + 1000, round: 5},
	}
	f.oracle = app.NewOracleService(f.store, f.clock, interp, discardLogger())
	f.admin = app.NewAdminService(f.store, f.clock, discardLogger())
	if ready {
		ctx := context.Background()
		if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); err != nil {
			t.Fatalf("initialize: %v", err)
		}
		if _, err := f.admin.SeedArtwork(ctx, authority, fullSource()); err != nil {
			t.Fatalf("seed artwork: %v", err)
		}
	}
	return f
}

func TestRequestDraw_NotInitialized(t *testing.T) {
	f := newFixture(t, nil, false)
	_, err := f.oracle.RequestDraw(context.Background(), app.DrawRequest{Identity: identity(1)})
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRequestDraw_ArtworkIncomplete(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	if _, err := f.admin.Initialize(ctx, authority, treasury, 10_000_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := f.admin.UploadCards(ctx, authority, 0, []string{"<svg/>"}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: identity(1)})
	if !errors.Is(err, domain.ErrArtworkIncomplete) {
		t.Fatalf("expected ErrArtworkIncomplete, got %v", err)
	}
	if err := f.oracle.Ready(ctx); !errors.Is(err, domain.ErrArtworkIncomplete) {
		t.Errorf("Ready: expected ErrArtworkIncomplete, got %v", err)
	}
}

func TestRequestDraw_Success(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	user := identity(7)

	resp, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.Draw(domain.DrawRequest{Identity: user, Now: f.clock.now, Round: 5, Sequence: 0})
	if resp.Fortune != want {
		t.Errorf("unexpected fortune:\n got %+v\nwant %+v", resp.Fortune, want)
	}
	if resp.Reading != domain.FormatReading(want.Cards, want.Rarity) {
		t.Errorf("unexpected reading: %s", resp.Reading)
	}
	if resp.Interpretation != nil {
		t.Error("expected no interpretation without an interpreter")
	}

	stored, err := f.oracle.GetFortune(ctx, 0)
	if err != nil {
		t.Fatalf("get fortune: %v", err)
	}
	if stored.Fortune != want {
		t.Error("stored fortune differs from returned fortune")
	}

	v := f.oracle.Verify(want.Seed)
	if v.Cards != want.Cards || v.Rarity != want.Rarity {
		t.Errorf("verification mismatch: %+v", v)
	}

	fees := f.store.FeeTransfers()
	if len(fees) != 1 || fees[0].Amount != 10_000_000 || fees[0].Treasury != treasury || fees[0].Payer != user {
		t.Errorf("unexpected fee transfers: %+v", fees)
	}
}

func TestRequestDraw_CooldownDoesNotBurnSequenceOrFee(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	user := identity(9)
	t0 := f.clock.now

	for i := range 2 {
		resp, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user})
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if resp.Fortune.ID != uint64(i) {
			t.Errorf("draw %d: expected id %d, got %d", i, i, resp.Fortune.ID)
		}
	}

	f.clock.now = t0 + 1000
	_, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user})
	remaining, ok := app.IsRateLimited(err)
	if !ok {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if remaining != 800 {
		t.Errorf("expected 800 seconds remaining, got %d", remaining)
	}
	if n := len(f.store.FeeTransfers()); n != 2 {
		t.Errorf("rejected draw must not charge a fee, got %d transfers", n)
	}

	// Another identity is not affected and receives the next sequence number.
	resp, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: identity(10)})
	if err != nil {
		t.Fatalf("other identity: %v", err)
	}
	if resp.Fortune.ID != 2 {
		t.Errorf("expected id 2, got %d", resp.Fortune.ID)
	}

	usage, err := f.oracle.GetUsage(ctx, user)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage.Usage.DailyCount != 2 || usage.NextEligibleIn != 800 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestRequestDraw_RejectionPersistsDayRollover(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	user := identity(11)

	// Four draws in one day arm a 24h window.
	times := []int64{0, 0, 1800, 1800 + 7200}
	base := f.clock.now
	for _, dt := range times {
		f.clock.now = base + dt
		if _, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user}); err != nil {
			t.Fatalf("draw at +%d: %v", dt, err)
		}
	}

	f.clock.now = (domain.DayIndex(base) + 1) * domain.SecondsPerDay
	if _, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user}); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected cooldown to survive the day boundary, got %v", err)
	}

	usage, err := f.oracle.GetUsage(ctx, user)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage.Usage.DailyCount != 0 || usage.Usage.LastResetDay != domain.DayIndex(f.clock.now) {
		t.Errorf("expected persisted rollover, got %+v", usage.Usage)
	}
	if usage.Usage.TotalDraws != 4 {
		t.Errorf("expected 4 lifetime draws, got %d", usage.Usage.TotalDraws)
	}
}

func TestRequestDraw_ConcurrentSameIdentity(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	user := identity(12)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		limited  int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, domain.ErrRateLimited):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// The first draw of the day is free, the second arms a 30 minute window.
	if accepted != 2 || limited != 18 {
		t.Errorf("expected 2 accepted and 18 limited, got %d and %d", accepted, limited)
	}
	st, err := f.store.OracleState(ctx)
	if err != nil {
		t.Fatalf("oracle state: %v", err)
	}
	if st.FortuneCounter != 2 {
		t.Errorf("expected counter 2, got %d", st.FortuneCounter)
	}
}

func TestRequestDraw_Interpretation(t *testing.T) {
	interp := &mockInterpreter{out: ports.InterpretOutput{Text: "A calm path.", Style: "neutral"}}
	f := newFixture(t, interp, true)

	resp, err := f.oracle.RequestDraw(context.Background(), app.DrawRequest{Identity: identity(3), Question: "What now?", Lang: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Interpretation == nil || resp.Interpretation.Text != "A calm path." {
		t.Fatalf("unexpected interpretation: %+v", resp.Interpretation)
	}
	if interp.last.Question != "What now?" || len(interp.last.Cards) != 3 {
		t.Errorf("unexpected interpreter input: %+v", interp.last)
	}
	if interp.last.Cards[0].Slot != "past" || interp.last.Cards[2].Slot != "future" {
		t.Errorf("unexpected slots: %+v", interp.last.Cards)
	}
}

func TestRequestDraw_InterpretationFailureKeepsDraw(t *testing.T) {
	interp := &mockInterpreter{err: domain.ErrUpstreamLLM}
	f := newFixture(t, interp, true)

	resp, err := f.oracle.RequestDraw(context.Background(), app.DrawRequest{Identity: identity(4)})
	if err != nil {
		t.Fatalf("interpreter failure must not fail the draw: %v", err)
	}
	if resp.Interpretation != nil {
		t.Error("expected nil interpretation")
	}
	if interp.calls != 1 {
		t.Errorf("expected 1 interpreter call, got %d", interp.calls)
	}
}

func TestListFortunes(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	user := identity(5)
	for range 2 {
		if _, err := f.oracle.RequestDraw(ctx, app.DrawRequest{Identity: user}); err != nil {
			t.Fatalf("draw: %v", err)
		}
	}
	list, err := f.oracle.ListFortunes(ctx, user, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Fortune.ID != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !strings.HasPrefix(list[0].Reading, "🔮 Fortune Reading [") {
		t.Errorf("unexpected reading: %s", list[0].Reading)
	}
}

func TestCardArtworkAndStatus(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()

	status, err := f.oracle.ArtworkStatus(ctx)
	if err != nil || !status.Complete || status.Count != domain.PoolSize {
		t.Fatalf("unexpected status %+v, %v", status, err)
	}
	if _, err := f.oracle.CardArtwork(ctx, 78); !errors.Is(err, domain.ErrInvalidCardID) {
		t.Errorf("expected ErrInvalidCardID, got %v", err)
	}
	svg, err := f.oracle.CardArtwork(ctx, 0)
	if err != nil || svg != "<svg/>" {
		t.Errorf("unexpected artwork %q, %v", svg, err)
	}
}
