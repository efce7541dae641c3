package handlers

import (
	"context"
	"errors"

	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/backpack-city/backpack-api/internal/verification"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	workflow *verification.Workflow
	logger   *zap.Logger
}

func NewAdminHandler(workflow *verification.Workflow, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{workflow: workflow, logger: logger}
}

type VerifyActionRequest struct {
	Body struct {
		_ struct{} `json:"-" additionalProperties:"true"`

		VisitorID numericText `json:"visitorId" doc:"Visitor identifier, as a number or numeric string"`
		Action    string      `json:"action" doc:"approve or reject"`
	}
}

type VerifyActionResponse struct {
	Body struct {
		Success    bool   `json:"success"`
		Status     string `json:"status"`
		VisitorMsg string `json:"visitor_msg"`
		NotifyURL  string `json:"notify_url,omitempty" doc:"WhatsApp link for contacting an approved visitor"`
	}
}

func (h *AdminHandler) HandleVerifyAction(ctx context.Context, input *VerifyActionRequest) (*VerifyActionResponse, error) {
	id, err := input.Body.VisitorID.ID()
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid visitor ID.")
	}

	result, err := h.workflow.Apply(ctx, id, verification.Action(input.Body.Action))
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrUnknownAction):
			return nil, huma.Error400BadRequest("Invalid action. Must be approve or reject.")
		case errors.Is(err, verification.ErrTerminalState):
			return nil, huma.Error409Conflict(err.Error())
		case errors.Is(err, store.ErrNotFound):
			return nil, huma.Error500InternalServerError("Visitor not found")
		}
		h.logger.Error("failed to apply verification action", zap.Uint("visitor_id", id), zap.Error(err))
		return nil, huma.Error500InternalServerError(err.Error())
	}

	res := &VerifyActionResponse{}
	res.Body.Success = true
	res.Body.Status = string(result.Status)
	res.Body.VisitorMsg = result.Message
	res.Body.NotifyURL = result.NotifyURL
	return res, nil
}
