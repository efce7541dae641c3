package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/backpack-city/backpack-api/internal/auth"
	"github.com/backpack-city/backpack-api/internal/config"
	"github.com/backpack-city/backpack-api/internal/database"
	"github.com/backpack-city/backpack-api/internal/logging"
	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/backpack-city/backpack-api/internal/referral"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/backpack-city/backpack-api/internal/uploads"
	"github.com/backpack-city/backpack-api/internal/verification"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	router   *chi.Mux
	store    *store.Store
	uploads  *uploads.Manager
	handlers Handlers
	cfg      *config.Config
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AdminUsername:       "admin",
		AdminPassword:       "s3cret",
		JWTSecret:           "test-secret",
		UploadTimeout:       5 * time.Second,
		MaxUploadBytes:      1 << 20,
		CodeMaxAttempts:     3,
		WhatsAppCountryCode: "91",
	}
	for _, m := range mutate {
		m(cfg)
	}

	db, err := database.Connect(database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	s := store.New(db)

	u, err := uploads.NewManager(t.TempDir(), cfg.MaxUploadBytes)
	require.NoError(t, err)

	ranges, err := referral.ParseRanges(config.DefaultPincodeRanges)
	require.NoError(t, err)

	logger := zap.NewNop()
	m := metrics.New()
	workflow := verification.NewWorkflow(s, nil, m, logger, verification.Options{
		Strict:              cfg.StrictVerification,
		WhatsAppCountryCode: cfg.WhatsAppCountryCode,
	})

	h := Handlers{
		Auth:     auth.NewAuthHandler(cfg, logger),
		Locals:   NewLocalHandler(s, referral.NewEligibility(ranges...), m, logger, cfg.CodeMaxAttempts),
		Visitors: NewVisitorHandler(s, u, nil, m, logger, cfg.UploadTimeout, cfg.MaxUploadBytes),
		Codes:    NewCodeHandler(s, m, logger),
		Admin:    NewAdminHandler(workflow, logger),
		Health:   NewHealthHandler(s, u, logging.NewRecent(10), logger),
		Metrics:  m.Handler(),
	}

	r := chi.NewRouter()
	RegisterRoutes(r, h, logger, RouteOptions{})

	return &testEnv{router: r, store: s, uploads: u, handlers: h, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func (e *testEnv) addLocal(t *testing.T, code string) *models.Local {
	t.Helper()
	l := &models.Local{Name: "Asha", Phone: "9876543210", Email: "asha@example.com", Pincode: "560001", ReferralCode: code}
	require.NoError(t, e.store.InsertLocal(t.Context(), l))
	return l
}

func (e *testEnv) uploadedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(e.uploads.Dir())
	require.NoError(t, err)
	return entries
}

type filePart struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/visitors/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validClaimFields(code string) map[string]string {
	return map[string]string{
		"name":         "Meera",
		"phone":        "9876543210",
		"email":        "meera@example.com",
		"referralCode": code,
		"originCity":   "Mumbai",
		"travelDate":   "2026-11-02",
	}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func httptestGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
