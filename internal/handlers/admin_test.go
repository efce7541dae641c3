package handlers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/backpack-city/backpack-api/internal/config"
	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) addVisitor(t *testing.T) *models.Visitor {
	t.Helper()
	v := &models.Visitor{Name: "Meera", Phone: "98765 43210", ReferralCodeUsed: "BP-DC102K", TicketFilename: "t.pdf"}
	require.NoError(t, e.store.InsertVisitor(context.Background(), v))
	return v
}

func TestHandleVerifyAction_Approve(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVisitor(t)

	rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": v.ID, "action": "approve"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "Visitor with ID 1 was approved.", body["visitor_msg"])
	assert.Contains(t, body["notify_url"], "phone=919876543210")
}

func TestHandleVerifyAction_LastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVisitor(t)
	ctx := context.Background()

	for _, action := range []string{"approve", "reject"} {
		input := &VerifyActionRequest{}
		input.Body.VisitorID = numericText(strconv.FormatUint(uint64(v.ID), 10))
		input.Body.Action = action
		_, err := env.handlers.Admin.HandleVerifyAction(ctx, input)
		require.NoError(t, err)
	}

	got, err := env.store.GetVisitor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.VerificationStatus)
}

func TestHandleVerifyAction_Strict(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.StrictVerification = true })
	v := env.addVisitor(t)

	rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": v.ID, "action": "reject"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": v.ID, "action": "approve"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, false, decode(t, rr)["success"])
}

func TestHandleVerifyAction_Errors(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVisitor(t)

	rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": v.ID, "action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": 999, "action": "approve"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Visitor not found"}`, rr.Body.String())
}

func TestHandleVerifyAction_StringID(t *testing.T) {
	env := newTestEnv(t)
	env.addVisitor(t)

	// The admin page reads ids from data attributes, so they arrive as strings.
	rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": "1", "action": "approve"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "approved", decode(t, rr)["status"])

	got, err := env.store.GetVisitor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.VerificationStatus)
}

func TestHandleVerifyAction_BadID(t *testing.T) {
	env := newTestEnv(t)
	env.addVisitor(t)

	for _, id := range []interface{}{"abc", "0", "-1", "1.5", ""} {
		rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": id, "action": "approve"})
		assert.Equal(t, http.StatusBadRequest, rr.Code, "id %v", id)
		assert.JSONEq(t, `{"success":false,"error":"Invalid visitor ID."}`, rr.Body.String())
	}

	// Wrong JSON types fail schema validation, still with a 400.
	rr := env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"visitorId": true, "action": "approve"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decode(t, rr)["success"])

	rr = env.postJSON(t, "/api/admin/verify-action", map[string]interface{}{"action": "approve"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decode(t, rr)["success"])

	got, err := env.store.GetVisitor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.VerificationStatus)
}

func TestAdminLoginAndGuard(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.AdminRequireToken = true })

	rr := env.do(t, httptestGet("/api/admin/locals"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.postJSON(t, "/api/admin/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid credentials"}`, rr.Body.String())

	rr = env.postJSON(t, "/api/admin/login", map[string]string{"username": "admin", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token, _ := decode(t, rr)["token"].(string)
	require.NotEmpty(t, token)

	req := httptestGet("/api/admin/locals")
	req.Header.Set("Authorization", "Bearer "+token)
	rr = env.do(t, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Public endpoints stay open.
	rr = env.postJSON(t, "/api/validate-code", map[string]string{"code": "BP-NOPE00"})
	assert.Equal(t, http.StatusOK, rr.Code)
}
