package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/cyberdamus-go/internal/app"
	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

const (
	headerIdentity   = "X-Identity"
	maxQuestionLen   = 500
	defaultListLimit = 20
	maxListLimit     = 100
)

type Handler struct {
	oracle     *app.OracleService
	admin      *app.AdminService
	adminToken string
}

// NewHandler wires the handlers. Admin routes are only registered when
// adminToken is non-empty.
func NewHandler(oracle *app.OracleService, admin *app.AdminService, adminToken string) *Handler {
	return &Handler{oracle: oracle, admin: admin, adminToken: adminToken}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	v1 := e.Group("/v1")
	v1.POST("/fortunes", h.CreateFortune)
	v1.GET("/fortunes/:id", h.GetFortune)
	v1.GET("/identities/:identity/usage", h.GetUsage)
	v1.GET("/identities/:identity/fortunes", h.ListFortunes)
	v1.GET("/verify", h.Verify)
	v1.GET("/rarity/odds", h.Odds)
	v1.GET("/cards/status", h.CardStatus)
	v1.GET("/cards/:id", h.CardArtwork)

	if h.adminToken != "" {
		admin := v1.Group("/admin", AdminAuthMiddleware(h.adminToken))
		admin.POST("/init", h.InitOracle)
		admin.PUT("/cards", h.UploadCards)
	}
}

// Healthz reports whether the oracle can accept draws.
func (h *Handler) Healthz(c echo.Context) error {
	if err := h.oracle.Ready(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateFortune(c echo.Context) error {
	id, err := domain.ParseIdentity(c.Request().Header.Get(headerIdentity))
	if err != nil {
		return mapError(c, err)
	}

	var body DrawBody
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		}
	}
	if len(body.Question) > maxQuestionLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question must be at most 500 characters"})
	}

	resp, err := h.oracle.RequestDraw(c.Request().Context(), app.DrawRequest{
		Identity: id,
		Question: body.Question,
		Lang:     body.Lang,
	})
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusCreated, toDrawResponse(resp, requestID(c)))
}

func (h *Handler) GetFortune(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be a non-negative integer"})
	}
	v, err := h.oracle.GetFortune(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toFortune(v.Fortune, v.Reading))
}

func (h *Handler) GetUsage(c echo.Context) error {
	id, err := domain.ParseIdentity(c.Param("identity"))
	if err != nil {
		return mapError(c, err)
	}
	u, err := h.oracle.GetUsage(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toUsage(u))
}

func (h *Handler) ListFortunes(c echo.Context) error {
	id, err := domain.ParseIdentity(c.Param("identity"))
	if err != nil {
		return mapError(c, err)
	}

	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer between 1 and 100"})
		}
		limit = parsed
	}

	list, err := h.oracle.ListFortunes(c.Request().Context(), id, limit)
	if err != nil {
		return mapError(c, err)
	}
	out := make([]FortuneResponse, len(list))
	for i, v := range list {
		out[i] = toFortune(v.Fortune, v.Reading)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Verify(c echo.Context) error {
	seed, err := domain.ParseSeed(c.QueryParam("seed"))
	if err != nil {
		return mapError(c, err)
	}
	v := h.oracle.Verify(seed)
	return c.JSON(http.StatusOK, VerifyResponse{
		Seed:    v.Seed.String(),
		Cards:   toCards(v.Cards),
		Rarity:  v.Rarity.String(),
		Reading: v.Reading,
	})
}

func (h *Handler) Odds(c echo.Context) error {
	return c.JSON(http.StatusOK, toOdds(h.oracle.Odds()))
}

func (h *Handler) CardStatus(c echo.Context) error {
	st, err := h.oracle.ArtworkStatus(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, ArtworkStatusResponse{Count: st.Count, Total: st.Total, Complete: st.Complete})
}

func (h *Handler) CardArtwork(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be an integer"})
	}
	svg, err := h.oracle.CardArtwork(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (h *Handler) InitOracle(c echo.Context) error {
	authority, err := domain.ParseIdentity(c.Request().Header.Get(headerIdentity))
	if err != nil {
		return mapError(c, err)
	}
	var body InitBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
	}
	treasury, err := domain.ParseIdentity(body.Treasury)
	if err != nil {
		return mapError(c, err)
	}

	st, err := h.admin.Initialize(c.Request().Context(), authority, treasury, body.Fee)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, toOracle(st))
}

func (h *Handler) UploadCards(c echo.Context) error {
	caller, err := domain.ParseIdentity(c.Request().Header.Get(headerIdentity))
	if err != nil {
		return mapError(c, err)
	}
	var body UploadBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
	}

	p, err := h.admin.UploadCards(c.Request().Context(), caller, body.Start, body.Cards)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, ArtworkStatusResponse{Count: p.Uploaded, Total: p.Total, Complete: p.Complete})
}

func requestID(c echo.Context) string {
	id, _ := c.Get("request_id").(string)
	return id
}

func mapError(c echo.Context, err error) error {
	if secs, ok := app.IsRateLimited(err); ok {
		c.Response().Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: domain.ErrRateLimited.Error(), RetryAfterSeconds: secs})
	}

	switch {
	case errors.Is(err, domain.ErrArtworkIncomplete), errors.Is(err, domain.ErrNotInitialized):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrFortuneNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyInitialized):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidIdentity),
		errors.Is(err, domain.ErrInvalidSeed),
		errors.Is(err, domain.ErrInvalidCardID),
		errors.Is(err, domain.ErrFeeOutOfRange),
		errors.Is(err, domain.ErrCardBatchTooLarge),
		errors.Is(err, domain.ErrArtworkTooLarge):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		slog.Error("upstream LLM failure", "request_id", requestID(c), "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream LLM failure"})
	default:
		slog.Error("internal error", "request_id", requestID(c), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
