package http

import (
	"github.com/randomtoy/cyberdamus-go/internal/app"
	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

// DrawBody is the optional JSON body of POST /v1/fortunes.
type DrawBody struct {
	Question string `json:"question"`
	Lang     string `json:"lang"`
}

// DrawResponse is the JSON shape returned by POST /v1/fortunes.
type DrawResponse struct {
	Fortune        FortuneResponse     `json:"fortune"`
	Interpretation *InterpretationResp `json:"interpretation,omitempty"`
	NextEligibleIn int64               `json:"next_eligible_in"`
	Meta           MetaResp            `json:"meta"`
}

type FortuneResponse struct {
	ID        uint64         `json:"id"`
	Owner     string         `json:"owner"`
	Cards     []CardResponse `json:"cards"`
	Rarity    string         `json:"rarity"`
	Timestamp int64          `json:"timestamp"`
	Round     uint64         `json:"round"`
	Seed      string         `json:"seed"`
	Reading   string         `json:"reading"`
}

type CardResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slot string `json:"slot"`
}

type InterpretationResp struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	Disclaimer string `json:"disclaimer"`
}

type MetaResp struct {
	Model     string `json:"model,omitempty"`
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

type UsageResponse struct {
	Identity          string `json:"identity"`
	DailyCount        uint32 `json:"daily_count"`
	TotalDraws        uint64 `json:"total_draws"`
	LastDrawTimestamp *int64 `json:"last_draw_timestamp"`
	CooldownUntil     *int64 `json:"cooldown_until"`
	NextEligibleIn    int64  `json:"next_eligible_in"`
}

type VerifyResponse struct {
	Seed    string         `json:"seed"`
	Cards   []CardResponse `json:"cards"`
	Rarity  string         `json:"rarity"`
	Reading string         `json:"reading"`
}

type OddsResponse struct {
	Total int            `json:"total"`
	Tiers []TierResponse `json:"tiers"`
}

type TierResponse struct {
	Rarity      string  `json:"rarity"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

type ArtworkStatusResponse struct {
	Count    int  `json:"count"`
	Total    int  `json:"total"`
	Complete bool `json:"complete"`
}

// InitBody is the JSON body of POST /v1/admin/init. The caller's X-Identity
// becomes the oracle authority.
type InitBody struct {
	Treasury string `json:"treasury"`
	Fee      uint64 `json:"fee"`
}

type OracleResponse struct {
	Authority       string `json:"authority"`
	Treasury        string `json:"treasury"`
	Fee             uint64 `json:"fee"`
	FortuneCounter  uint64 `json:"fortune_counter"`
	ArtworkComplete bool   `json:"artwork_complete"`
	ArtworkVersion  int    `json:"artwork_version"`
}

// UploadBody is the JSON body of PUT /v1/admin/cards.
type UploadBody struct {
	Start int      `json:"start"`
	Cards []string `json:"cards"`
}

type ErrorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

func toCards(cards [3]domain.CardID) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, c := range cards {
		out[i] = CardResponse{ID: int(c), Name: domain.CardName(c), Slot: domain.SlotNames[i]}
	}
	return out
}

func toFortune(f domain.Fortune, reading string) FortuneResponse {
	return FortuneResponse{
		ID:        f.ID,
		Owner:     f.Owner.String(),
		Cards:     toCards(f.Cards),
		Rarity:    f.Rarity.String(),
		Timestamp: f.Timestamp,
		Round:     f.Round,
		Seed:      f.Seed.String(),
		Reading:   reading,
	}
}

func toDrawResponse(r app.DrawResponse, requestID string) DrawResponse {
	out := DrawResponse{
		Fortune:        toFortune(r.Fortune, r.Reading),
		NextEligibleIn: r.NextEligibleIn,
		Meta: MetaResp{
			RequestID: requestID,
			LatencyMS: r.LatencyMS,
		},
	}
	if in := r.Interpretation; in != nil {
		out.Interpretation = &InterpretationResp{
			Style:      in.Style,
			Text:       in.Text,
			Disclaimer: in.Disclaimer,
		}
		out.Meta.Model = in.Model
	}
	return out
}

func toUsage(u app.UsageView) UsageResponse {
	out := UsageResponse{
		Identity:       u.Usage.Identity.String(),
		DailyCount:     u.Usage.DailyCount,
		TotalDraws:     u.Usage.TotalDraws,
		NextEligibleIn: u.NextEligibleIn,
	}
	if u.Usage.TotalDraws > 0 {
		ts, until := u.Usage.LastDrawTimestamp, u.Usage.CooldownUntil
		out.LastDrawTimestamp = &ts
		out.CooldownUntil = &until
	}
	return out
}

func toOdds(o domain.TierOdds) OddsResponse {
	out := OddsResponse{Total: o.Total, Tiers: make([]TierResponse, 0, len(domain.Rarities))}
	for i := len(domain.Rarities) - 1; i >= 0; i-- {
		r := domain.Rarities[i]
		out.Tiers = append(out.Tiers, TierResponse{
			Rarity:      r.String(),
			Count:       o.Counts[r],
			Probability: o.Probability(r),
		})
	}
	return out
}

func toOracle(st domain.OracleState) OracleResponse {
	return OracleResponse{
		Authority:       st.Authority.String(),
		Treasury:        st.Treasury.String(),
		Fee:             st.Fee,
		FortuneCounter:  st.FortuneCounter,
		ArtworkComplete: st.ArtworkComplete,
		ArtworkVersion:  st.ArtworkVersion,
	}
}
