package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

// DrawRequest is the application-level input (no HTTP types).
type DrawRequest struct {
	Identity domain.Identity
	Question string
	Lang     string
}

// DrawResponse is the application-level output of an accepted draw.
type DrawResponse struct {
	Fortune domain.Fortune
	Reading string
	// Interpretation is nil when no interpreter is configured or it failed.
	Interpretation *ports.InterpretOutput
	// NextEligibleIn is how many seconds the identity must wait before its next draw.
	NextEligibleIn int64
	LatencyMS      int64
}

// FortuneView is a persisted fortune together with its rendered reading.
type FortuneView struct {
	Fortune domain.Fortune
	Reading string
}

// UsageView is an identity's rate-limit state as seen at a given moment.
type UsageView struct {
	Usage          domain.UsageRecord
	NextEligibleIn int64
}

// VerifyResult recomputes a draw from nothing but its seed.
type VerifyResult struct {
	Seed    domain.Seed
	Cards   [3]domain.CardID
	Rarity  domain.Rarity
	Reading string
}

// ArtworkStatus reports how much of the card library is populated.
type ArtworkStatus struct {
	Count    int
	Total    int
	Complete bool
}

// OracleService orchestrates rate limiting, drawing and persistence of fortunes.
type OracleService struct {
	store       ports.Store
	clock       ports.Clock
	interpreter ports.Interpreter
	locks       identityLocks
	logger      *slog.Logger
}

// NewOracleService wires the service. interp may be nil.
func NewOracleService(store ports.Store, clock ports.Clock, interp ports.Interpreter, logger *slog.Logger) *OracleService {
	return &OracleService{
		store:       store,
		clock:       clock,
		interpreter: interp,
		logger:      logger,
	}
}

// RequestDraw gates, draws, charges and records one fortune for req.Identity.
// A cooldown rejection is returned as *domain.RateLimitedError and consumes
// neither a sequence number nor a fee.
func (s *OracleService) RequestDraw(ctx context.Context, req DrawRequest) (DrawResponse, error) {
	start := time.Now()

	if _, err := s.store.OracleState(ctx); err != nil {
		return DrawResponse{}, fmt.Errorf("load oracle: %w", err)
	}
	full, err := s.store.IsFullyPopulated(ctx)
	if err != nil {
		return DrawResponse{}, fmt.Errorf("check artwork: %w", err)
	}
	if !full {
		return DrawResponse{}, domain.ErrArtworkIncomplete
	}

	unlock := s.locks.lock(req.Identity)
	defer unlock()

	now, round := s.clock.Now(), s.clock.Round()

	var (
		fortune  domain.Fortune
		usage    domain.UsageRecord
		rejected error
	)
	err = s.store.WithinUnitOfWork(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		st, err := uow.OracleState(ctx)
		if err != nil {
			return err
		}
		usage, err = uow.LoadUsage(ctx, req.Identity)
		if err != nil {
			return err
		}

		if rejected = usage.Evaluate(now); rejected != nil {
			// Keep the day rollover even though the draw is refused.
			return uow.SaveUsage(ctx, usage)
		}

		seq, err := uow.AllocateSequence(ctx)
		if err != nil {
			return err
		}
		fortune = domain.Draw(domain.DrawRequest{
			Identity: req.Identity,
			Now:      now,
			Round:    round,
			Sequence: seq,
		})
		if err := uow.SaveFortune(ctx, fortune); err != nil {
			return err
		}
		if st.Fee > 0 {
			err := uow.RecordFee(ctx, ports.FeeTransfer{
				FortuneID: fortune.ID,
				Payer:     req.Identity,
				Treasury:  st.Treasury,
				Amount:    st.Fee,
				Timestamp: now,
			})
			if err != nil {
				return err
			}
		}

		usage.Commit(now)
		return uow.SaveUsage(ctx, usage)
	})
	if err != nil {
		return DrawResponse{}, fmt.Errorf("draw: %w", err)
	}
	if rejected != nil {
		s.logger.DebugContext(ctx, "draw rejected", "identity", req.Identity.String(), "error", rejected)
		return DrawResponse{}, rejected
	}

	resp := DrawResponse{
		Fortune:        fortune,
		Reading:        domain.FormatReading(fortune.Cards, fortune.Rarity),
		NextEligibleIn: usage.SecondsUntilEligible(now),
	}
	s.logger.InfoContext(ctx, "fortune created",
		"fortune_id", fortune.ID,
		"identity", req.Identity.String(),
		"rarity", fortune.Rarity.String(),
		"next_eligible_in", resp.NextEligibleIn,
	)
	s.logMilestone(ctx, fortune.ID)

	if s.interpreter != nil {
		out, err := s.interpreter.Interpret(ctx, toInterpretInput(fortune, req))
		if err != nil {
			s.logger.WarnContext(ctx, "interpretation failed", "fortune_id", fortune.ID, "error", err)
		} else {
			resp.Interpretation = &out
		}
	}

	resp.LatencyMS = time.Since(start).Milliseconds()
	return resp, nil
}

func (s *OracleService) logMilestone(ctx context.Context, id uint64) {
	var msg string
	switch id {
	case 0:
		msg = "genesis fortune"
	case 99:
		msg = "100th fortune"
	case 999:
		msg = "1000th fortune"
	default:
		return
	}
	s.logger.InfoContext(ctx, msg, "fortune_id", id)
}

// GetFortune returns a persisted fortune by sequence number.
func (s *OracleService) GetFortune(ctx context.Context, id uint64) (FortuneView, error) {
	f, err := s.store.GetFortune(ctx, id)
	if err != nil {
		return FortuneView{}, fmt.Errorf("get fortune: %w", err)
	}
	return FortuneView{Fortune: f, Reading: domain.FormatReading(f.Cards, f.Rarity)}, nil
}

// ListFortunes returns up to limit fortunes of owner, newest first.
func (s *OracleService) ListFortunes(ctx context.Context, owner domain.Identity, limit int) ([]FortuneView, error) {
	list, err := s.store.ListFortunes(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list fortunes: %w", err)
	}
	out := make([]FortuneView, len(list))
	for i, f := range list {
		out[i] = FortuneView{Fortune: f, Reading: domain.FormatReading(f.Cards, f.Rarity)}
	}
	return out, nil
}

// GetUsage returns the rate-limit state of id as of now.
func (s *OracleService) GetUsage(ctx context.Context, id domain.Identity) (UsageView, error) {
	u, err := s.store.GetUsage(ctx, id)
	if err != nil {
		return UsageView{}, fmt.Errorf("get usage: %w", err)
	}
	return UsageView{Usage: u, NextEligibleIn: u.SecondsUntilEligible(s.clock.Now())}, nil
}

// Verify replays the shuffle and classification for seed.
func (s *OracleService) Verify(seed domain.Seed) VerifyResult {
	cards := domain.DrawThree(seed)
	rarity := domain.Classify(cards)
	return VerifyResult{
		Seed:    seed,
		Cards:   cards,
		Rarity:  rarity,
		Reading: domain.FormatReading(cards, rarity),
	}
}

// Odds returns the exact tier distribution of a uniform draw.
func (s *OracleService) Odds() domain.TierOdds {
	return domain.ExactTierOdds()
}

// ArtworkStatus reports library progress.
func (s *OracleService) ArtworkStatus(ctx context.Context) (ArtworkStatus, error) {
	n, err := s.store.ArtworkCount(ctx)
	if err != nil {
		return ArtworkStatus{}, fmt.Errorf("count artwork: %w", err)
	}
	return ArtworkStatus{Count: n, Total: domain.PoolSize, Complete: n == domain.PoolSize}, nil
}

// CardArtwork returns the stored SVG of card id.
func (s *OracleService) CardArtwork(ctx context.Context, id int) (string, error) {
	if id < 0 || id >= domain.PoolSize {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidCardID, id)
	}
	svg, err := s.store.GetArtwork(ctx, domain.CardID(id))
	if err != nil {
		return "", fmt.Errorf("get artwork: %w", err)
	}
	return svg, nil
}

// Ready reports whether draws can currently be accepted.
func (s *OracleService) Ready(ctx context.Context) error {
	if _, err := s.store.OracleState(ctx); err != nil {
		return err
	}
	full, err := s.store.IsFullyPopulated(ctx)
	if err != nil {
		return err
	}
	if !full {
		return domain.ErrArtworkIncomplete
	}
	return nil
}

func toInterpretInput(f domain.Fortune, req DrawRequest) ports.InterpretInput {
	cards := make([]ports.CardInput, len(f.Cards))
	for i, c := range f.Cards {
		cards[i] = ports.CardInput{
			ID:   int(c),
			Name: domain.CardName(c),
			Slot: domain.SlotNames[i],
		}
	}
	return ports.InterpretInput{
		FortuneID: f.ID,
		Rarity:    f.Rarity.String(),
		Question:  req.Question,
		Lang:      req.Lang,
		Cards:     cards,
	}
}

// IsRateLimited extracts the remaining wait from a draw error.
func IsRateLimited(err error) (int64, bool) {
	var rl *domain.RateLimitedError
	if errors.As(err, &rl) {
		return rl.SecondsRemaining, true
	}
	return 0, false
}
