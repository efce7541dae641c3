package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

type CodeHandler struct {
	store   *store.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCodeHandler(s *store.Store, m *metrics.Metrics, logger *zap.Logger) *CodeHandler {
	return &CodeHandler{store: s, metrics: m, logger: logger}
}

type ValidateCodeRequest struct {
	Body struct {
		_ struct{} `json:"-" additionalProperties:"true"`

		Code string `json:"code" required:"false" doc:"Referral code, matched exactly and case-sensitively"`
	}
}

type ValidateCodeResponse struct {
	Body struct {
		Valid bool `json:"valid"`
	}
}

// HandleValidate answers whether a referral code belongs to a local. The
// match is exact: "bp-dc102k" does not validate "BP-DC102K".
func (h *CodeHandler) HandleValidate(ctx context.Context, input *ValidateCodeRequest) (*ValidateCodeResponse, error) {
	res := &ValidateCodeResponse{}
	if input.Body.Code == "" {
		h.metrics.CodeChecks.WithLabelValues("false").Inc()
		return res, nil
	}

	_, err := h.store.FindLocalByCode(ctx, input.Body.Code)
	switch {
	case err == nil:
		res.Body.Valid = true
	case errors.Is(err, store.ErrNotFound):
	default:
		h.logger.Error("referral code lookup failed", zap.Error(err))
		return nil, huma.Error500InternalServerError(err.Error())
	}

	h.metrics.CodeChecks.WithLabelValues(strconv.FormatBool(res.Body.Valid)).Inc()
	return res, nil
}

type LookupCodeRequest struct {
	Code string `path:"code" doc:"Referral code to investigate"`
}

type LookupCodeResponse struct {
	Body *store.CodeLookup
}

// HandleLookup is the admin diagnostic: besides the exact match it reports
// case-insensitive and partial matches and who used the code.
func (h *CodeHandler) HandleLookup(ctx context.Context, input *LookupCodeRequest) (*LookupCodeResponse, error) {
	lookup, err := h.store.LookupCode(ctx, input.Code)
	if err != nil {
		h.logger.Error("referral code diagnostic failed", zap.Error(err))
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &LookupCodeResponse{Body: lookup}, nil
}
