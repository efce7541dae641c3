package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/backpack-city/backpack-api/internal/notifier"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/backpack-city/backpack-api/internal/uploads"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	ticketField   = "ticketFile"
	maxFieldBytes = 64 << 10
)

var requiredUploadFields = []string{"name", "phone", "email", "referralCode", "originCity", "travelDate"}

var errExtraFile = errors.New("only one ticket file may be uploaded")

type VisitorHandler struct {
	store    *store.Store
	uploads  *uploads.Manager
	notifier notifier.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	timeout  time.Duration
	maxBytes int64
}

func NewVisitorHandler(s *store.Store, u *uploads.Manager, n notifier.Notifier, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration, maxBytes int64) *VisitorHandler {
	if n == nil {
		n = notifier.Nop{}
	}
	return &VisitorHandler{store: s, uploads: u, notifier: n, metrics: m, logger: logger, timeout: timeout, maxBytes: maxBytes}
}

// claimForm is a parsed upload request. file is the stored name, empty when
// the request carried no ticket.
type claimForm struct {
	fields map[string]string
	file   string
}

func (f *claimForm) get(key string) string {
	return strings.TrimSpace(f.fields[key])
}

// HandleUpload stores the ticket before validating anything else, then
// discards it again if the claim turns out to be invalid.
func (h *VisitorHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.Info("visitor upload received")

	form, err := h.receive(w, r)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrTimeout):
			h.metrics.Uploads.WithLabelValues("timeout").Inc()
			h.logger.Warn("visitor upload timed out", zap.Duration("timeout", h.timeout), zap.Error(err))
		default:
			h.metrics.Uploads.WithLabelValues("upload_error").Inc()
			h.logger.Warn("visitor upload failed", zap.Error(err))
		}
		writeError(w, http.StatusBadRequest, "Upload failed: "+errorCause(err))
		return
	}

	if form.file == "" {
		h.metrics.Uploads.WithLabelValues("no_file").Inc()
		h.logger.Info("visitor upload without file")
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	for _, key := range requiredUploadFields {
		if form.get(key) == "" {
			h.metrics.Uploads.WithLabelValues("missing_fields").Inc()
			h.logger.Info("visitor upload missing fields", zap.String("field", key))
			h.rollback(form.file)
			writeError(w, http.StatusBadRequest, "Missing fields.")
			return
		}
	}

	code := form.get("referralCode")
	h.logger.Info("validating referral code", zap.String("referral_code", code), zap.String("name", form.get("name")))

	if _, err := h.store.FindLocalByCode(ctx, code); err != nil {
		h.rollback(form.file)
		if errors.Is(err, store.ErrNotFound) {
			h.metrics.Uploads.WithLabelValues("invalid_code").Inc()
			h.logger.Info("invalid referral code", zap.String("referral_code", code))
			writeError(w, http.StatusBadRequest, "Invalid code")
			return
		}
		h.metrics.Uploads.WithLabelValues("storage_error").Inc()
		h.logger.Error("referral code lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB Error")
		return
	}

	visitor := models.Visitor{
		Name:               form.get("name"),
		Phone:              form.get("phone"),
		Email:              form.get("email"),
		ReferralCodeUsed:   code,
		OriginCity:         form.get("originCity"),
		TravelDate:         form.get("travelDate"),
		TicketFilename:     form.file,
		VerificationStatus: models.StatusPending,
	}
	if rd := form.get("returnDate"); rd != "" {
		visitor.ReturnDate = &rd
	}

	if err := h.store.InsertVisitor(ctx, &visitor); err != nil {
		h.rollback(form.file)
		h.metrics.Uploads.WithLabelValues("storage_error").Inc()
		h.logger.Error("failed to insert visitor", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.metrics.Uploads.WithLabelValues("ok").Inc()
	h.logger.Info("visitor claim stored", zap.Uint("visitor_id", visitor.ID), zap.String("ticket", visitor.TicketFilename))
	if err := h.notifier.NotifyClaim(visitor); err != nil {
		h.logger.Warn("failed to send claim notification", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ticket uploaded successfully",
	})
}

// receive streams the multipart body, storing the ticket as soon as its part
// arrives. The whole receive step runs under the upload timeout.
func (h *VisitorHandler) receive(w http.ResponseWriter, r *http.Request) (*claimForm, error) {
	ctx := r.Context()
	if h.timeout > 0 {
		deadline := time.Now().Add(h.timeout)
		rc := http.NewResponseController(w)
		if err := rc.SetReadDeadline(deadline); err == nil {
			defer rc.SetReadDeadline(time.Time{})
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	}

	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		// Nothing to stream; reported as a missing ticket.
		return &claimForm{fields: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	form := &claimForm{fields: make(map[string]string)}
	fail := func(err error) (*claimForm, error) {
		if form.file != "" {
			h.rollback(form.file)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", uploads.ErrTimeout, err)
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}

		if err := h.receivePart(ctx, form, part); err != nil {
			part.Close()
			return fail(err)
		}
		part.Close()
	}
	return form, nil
}

func (h *VisitorHandler) receivePart(ctx context.Context, form *claimForm, part *multipart.Part) error {
	name := part.FormName()
	if part.FileName() != "" {
		if name != ticketField {
			_, err := io.Copy(io.Discard, part)
			return err
		}
		if form.file != "" {
			return errExtraFile
		}
		stored, err := h.uploads.Store(ctx, part, part.FileName())
		if err != nil {
			return err
		}
		form.file = stored
		return nil
	}

	value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return err
	}
	if _, ok := form.fields[name]; !ok {
		form.fields[name] = string(value)
	}
	return nil
}

// rollback removes a ticket whose claim failed. Errors are only logged.
func (h *VisitorHandler) rollback(name string) {
	if err := h.uploads.Discard(name); err != nil {
		h.metrics.Rollbacks.WithLabelValues("failed").Inc()
		h.logger.Error("failed to discard uploaded ticket", zap.String("ticket", name), zap.Error(err))
		return
	}
	h.metrics.Rollbacks.WithLabelValues("ok").Inc()
	h.logger.Info("discarded uploaded ticket", zap.String("ticket", name))
}

type ListVisitorsResponse struct {
	Body []models.Visitor
}

func (h *VisitorHandler) HandleList(ctx context.Context, _ *struct{}) (*ListVisitorsResponse, error) {
	visitors, err := h.store.ListVisitors(ctx)
	if err != nil {
		h.logger.Error("failed to list visitors", zap.Error(err))
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &ListVisitorsResponse{Body: visitors}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, uploads.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func errorCause(err error) string {
	switch {
	case errors.Is(err, uploads.ErrTimeout):
		return uploads.ErrTimeout.Error()
	case errors.Is(err, uploads.ErrTooLarge):
		return uploads.ErrTooLarge.Error()
	case errors.Is(err, errExtraFile):
		return errExtraFile.Error()
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return uploads.ErrTooLarge.Error()
	}
	return err.Error()
}

// HandleTicket serves a stored ticket by its generated name.
func (h *VisitorHandler) HandleTicket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := h.uploads.Path(name)
	if err != nil || !h.uploads.Exists(name) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeFile(w, r, path)
}
