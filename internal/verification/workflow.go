// Package verification applies administrator decisions to visitor claims.
//
// A visitor starts pending and is moved to approved or rejected by an
// action. By default the workflow is permissive: any action is applied to
// any visitor and the last one wins. In strict mode a visitor that already
// reached a terminal status can only be re-sent the same decision.
package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/backpack-city/backpack-api/internal/notifier"
	"github.com/backpack-city/backpack-api/internal/store"
	"go.uber.org/zap"
)

var (
	ErrUnknownAction = errors.New("unknown verification action")
	ErrTerminalState = errors.New("visitor has already been reviewed")
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Target maps an action to the status it produces.
func (a Action) Target() (models.VerificationStatus, error) {
	switch a {
	case ActionApprove:
		return models.StatusApproved, nil
	case ActionReject:
		return models.StatusRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
}

type VisitorStore interface {
	TransitionVisitor(ctx context.Context, id uint, status models.VerificationStatus, from []models.VerificationStatus) (*models.Visitor, error)
}

type Options struct {
	Strict              bool
	WhatsAppCountryCode string
}

type Workflow struct {
	store    VisitorStore
	notifier notifier.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
}

func NewWorkflow(s VisitorStore, n notifier.Notifier, m *metrics.Metrics, logger *zap.Logger, opts Options) *Workflow {
	if n == nil {
		n = notifier.Nop{}
	}
	return &Workflow{store: s, notifier: n, metrics: m, logger: logger, opts: opts}
}

type Result struct {
	Visitor models.Visitor
	Status  models.VerificationStatus
	Message string
	// NotifyURL is a WhatsApp link for approved visitors with a phone number.
	NotifyURL string
}

// Apply moves visitor id to the status named by action and announces the
// decision, approve or reject, to the notifier. Failures are
// ErrUnknownAction, store.ErrNotFound, ErrTerminalState (strict mode only)
// or a wrapped storage error.
func (w *Workflow) Apply(ctx context.Context, id uint, action Action) (*Result, error) {
	status, err := action.Target()
	if err != nil {
		return nil, err
	}

	var from []models.VerificationStatus
	if w.opts.Strict {
		from = []models.VerificationStatus{models.StatusPending, status}
	}

	visitor, err := w.store.TransitionVisitor(ctx, id, status, from)
	if err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			current := models.VerificationStatus("")
			if visitor != nil {
				current = visitor.VerificationStatus
			}
			return nil, fmt.Errorf("%w: visitor %d is %s", ErrTerminalState, id, current)
		}
		return nil, err
	}

	w.logger.Info("visitor reviewed",
		zap.Uint("visitor_id", id),
		zap.String("status", string(status)),
	)
	if w.metrics != nil {
		w.metrics.Verifications.WithLabelValues(string(status)).Inc()
	}
	if err := w.notifier.NotifyVerification(*visitor); err != nil {
		w.logger.Warn("failed to send verification notification", zap.Uint("visitor_id", id), zap.Error(err))
	}

	res := &Result{
		Visitor: *visitor,
		Status:  status,
		Message: fmt.Sprintf("Visitor with ID %d was %s.", id, status),
	}
	if status == models.StatusApproved {
		res.NotifyURL = notifier.WhatsAppLink(w.opts.WhatsAppCountryCode, visitor.Phone, visitor.Name)
	}
	return res, nil
}
