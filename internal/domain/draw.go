package domain

// DrawRequest carries the injected context of one draw.
type DrawRequest struct {
	Identity Identity
	Now      int64
	Round    uint64
	Sequence uint64
}

// Draw derives the seed for req and produces the resulting fortune.
// It does not consult or touch any usage state.
func Draw(req DrawRequest) Fortune {
	seed := DeriveSeed(req.Identity, req.Now, req.Round, req.Sequence)
	cards := DrawThree(seed)
	return Fortune{
		ID:        req.Sequence,
		Owner:     req.Identity,
		Cards:     cards,
		Timestamp: req.Now,
		Round:     req.Round,
		Rarity:    Classify(cards),
		Seed:      seed,
	}
}

// RequestDraw gates req through usage, draws on acceptance and commits the
// usage change. On rejection the returned error is *RateLimitedError and only
// the day rollover has been applied to usage.
func RequestDraw(usage *UsageRecord, req DrawRequest) (Fortune, error) {
	if err := usage.Evaluate(req.Now); err != nil {
		return Fortune{}, err
	}
	f := Draw(req)
	usage.Commit(req.Now)
	return f, nil
}
