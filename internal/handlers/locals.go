package handlers

import (
	"context"
	"errors"

	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/backpack-city/backpack-api/internal/referral"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

type LocalHandler struct {
	store       *store.Store
	eligibility *referral.Eligibility
	metrics     *metrics.Metrics
	logger      *zap.Logger
	maxAttempts int
	generate    func() string
}

func NewLocalHandler(s *store.Store, eligibility *referral.Eligibility, m *metrics.Metrics, logger *zap.Logger, maxAttempts int) *LocalHandler {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &LocalHandler{
		store:       s,
		eligibility: eligibility,
		metrics:     m,
		logger:      logger,
		maxAttempts: maxAttempts,
		generate:    referral.GenerateCode,
	}
}

type RegisterLocalRequest struct {
	Body struct {
		_ struct{} `json:"-" additionalProperties:"true"`

		Name    string      `json:"name" required:"false" doc:"Full name"`
		Phone   string      `json:"phone" required:"false" doc:"Phone number"`
		Email   string      `json:"email" required:"false" doc:"Email address"`
		Pincode numericText `json:"pincode" required:"false" doc:"Six digit postal code of residence"`
	}
}

type RegisterLocalResponse struct {
	Body struct {
		Success      bool   `json:"success"`
		ReferralCode string `json:"referral_code"`
	}
}

func (h *LocalHandler) HandleRegister(ctx context.Context, input *RegisterLocalRequest) (*RegisterLocalResponse, error) {
	pincode := string(input.Body.Pincode)
	if err := h.eligibility.Validate(pincode); err != nil {
		h.metrics.Registrations.WithLabelValues("ineligible").Inc()
		if errors.Is(err, referral.ErrInvalidFormat) {
			return nil, huma.Error400BadRequest("Invalid pincode format. Must be 6 digits.")
		}
		return nil, huma.Error400BadRequest("Pincode is not in an eligible area. Must be in range " + h.eligibility.Describe() + ".")
	}

	// Codes are only checked by the unique index; a collision regenerates.
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		local := models.Local{
			Name:         input.Body.Name,
			Phone:        input.Body.Phone,
			Email:        input.Body.Email,
			Pincode:      pincode,
			ReferralCode: h.generate(),
		}

		err := h.store.InsertLocal(ctx, &local)
		if err == nil {
			h.metrics.Registrations.WithLabelValues("ok").Inc()
			h.logger.Info("local registered",
				zap.Uint("local_id", local.ID),
				zap.String("referral_code", local.ReferralCode),
			)
			res := &RegisterLocalResponse{}
			res.Body.Success = true
			res.Body.ReferralCode = local.ReferralCode
			return res, nil
		}

		if !errors.Is(err, store.ErrDuplicateCode) {
			h.metrics.Registrations.WithLabelValues("error").Inc()
			h.logger.Error("failed to register local", zap.Error(err))
			return nil, huma.Error500InternalServerError("Failed to register: " + err.Error())
		}
		h.metrics.CodeCollisions.Inc()
		h.logger.Warn("referral code collision",
			zap.String("referral_code", local.ReferralCode),
			zap.Int("attempt", attempt),
		)
	}

	h.metrics.Registrations.WithLabelValues("collision").Inc()
	return nil, huma.Error500InternalServerError("Failed to register: could not generate a unique referral code")
}

type ListLocalsResponse struct {
	Body []models.Local
}

func (h *LocalHandler) HandleList(ctx context.Context, _ *struct{}) (*ListLocalsResponse, error) {
	locals, err := h.store.ListLocals(ctx)
	if err != nil {
		h.logger.Error("failed to list locals", zap.Error(err))
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &ListLocalsResponse{Body: locals}, nil
}
