package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/backpack-city/backpack-api/internal/logging"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/backpack-city/backpack-api/internal/uploads"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthLogLines = 10

type HealthHandler struct {
	store     *store.Store
	uploads   *uploads.Manager
	recent    *logging.Recent
	logger    *zap.Logger
	startTime time.Time
}

func NewHealthHandler(s *store.Store, u *uploads.Manager, recent *logging.Recent, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: s, uploads: u, recent: recent, logger: logger, startTime: time.Now()}
}

type HealthChecks struct {
	Database  string `json:"database"`
	UploadDir string `json:"uploadDir"`
	DiskWrite string `json:"diskWrite"`
}

type HealthResponse struct {
	Body struct {
		Status    string       `json:"status"`
		StartTime time.Time    `json:"startTime"`
		Timestamp time.Time    `json:"timestamp"`
		Checks    HealthChecks `json:"checks"`
		Logs      []string     `json:"logs"`
	}
}

// HandleHealth reports database and disk state. Failing checks are described
// in the body; the endpoint itself always answers 200.
func (h *HealthHandler) HandleHealth(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
	h.logger.Debug("health check requested")

	res := &HealthResponse{}
	res.Body.Status = "Online"
	res.Body.StartTime = h.startTime
	res.Body.Checks.UploadDir = h.uploads.Dir()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := h.store.CountLocals(gctx)
		if err != nil {
			res.Body.Checks.Database = "Error: " + err.Error()
			return nil
		}
		res.Body.Checks.Database = fmt.Sprintf("OK (%d locals)", n)
		return nil
	})
	g.Go(func() error {
		if err := h.uploads.Probe(); err != nil {
			res.Body.Checks.DiskWrite = "Not Writable: " + err.Error()
			return nil
		}
		res.Body.Checks.DiskWrite = "Writable"
		return nil
	})
	g.Wait()

	res.Body.Timestamp = time.Now()
	res.Body.Logs = []string{}
	if h.recent != nil {
		res.Body.Logs = h.recent.Last(healthLogLines)
	}
	return res, nil
}
