package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Nzyazin/invest/internal/core/middleware"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/internal/core/wizard"
	"github.com/Nzyazin/invest/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeGateway struct {
	repository.BackendGateway

	depositErr error
	deposits   []models.DepositRequest
	plans      []models.InvestmentPlan
	planErr    error
}

func (g *fakeGateway) SubmitDeposit(_ context.Context, req models.DepositRequest) (models.Acknowledgement, error) {
	if g.depositErr != nil {
		return models.Acknowledgement{}, g.depositErr
	}
	g.deposits = append(g.deposits, req)
	return models.Acknowledgement{Message: "Deposit request submitted"}, nil
}

func (g *fakeGateway) ListPlans(context.Context) ([]models.InvestmentPlan, error) {
	return g.plans, g.planErr
}

func (g *fakeGateway) Invest(context.Context, int64) (models.Acknowledgement, error) {
	return models.Acknowledgement{Message: "Investment successful"}, nil
}

func (g *fakeGateway) PlanHistory(context.Context) ([]models.PlanEnrollment, error) {
	return []models.PlanEnrollment{{PlanTitle: "Silver", Amount: decimal.NewFromInt(5000), Status: models.EnrollmentActive}}, g.planErr
}

func (g *fakeGateway) ProfitHistory(context.Context) ([]models.ProfitRecord, error) {
	return []models.ProfitRecord{{PlanTitle: "Silver", TotalEarned: decimal.NewFromInt(250), IsActive: true}}, g.planErr
}

type testServer struct {
	router   *mux.Router
	gateway  *fakeGateway
	registry *wizard.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{router: mux.NewRouter(), gateway: &fakeGateway{}, registry: wizard.NewRegistry()}
	gateways := func(*session.Context) repository.BackendGateway { return ts.gateway }
	cfg := config.WizardConfig{
		DepositMinimum:    decimal.NewFromInt(3000),
		WithdrawalMinimum: decimal.NewFromInt(100),
		DepositPresets:    []decimal.Decimal{decimal.NewFromInt(3000)},
		ProofMaxBytes:     1 << 20,
	}

	api := ts.router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Authenticate(session.NewJWTIdentityProvider(), zap.NewNop()))
	NewWizardHandler(ts.registry, gateways, cfg, nil, zap.NewNop()).RegisterRoutes(api)
	NewPortfolioHandler(gateways, func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }, zap.NewNop()).RegisterRoutes(api)
	return ts
}

func token(t *testing.T, userID float64) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID, "username": "ali"}).SignedString([]byte("k"))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+bearer)
	return ts.serve(t, req)
}

func (ts *testServer) serve(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr.Code, out
}

func (ts *testServer) uploadProof(t *testing.T, id, bearer string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="screenshot"; filename="proof.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wizards/"+id+"/proof", &buf)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.serve(t, req)
}

func (ts *testServer) openDepositAtDetails(t *testing.T, bearer string) string {
	t.Helper()
	code, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)
	base := "/api/v1/wizards/" + id

	code, _ = ts.do(t, http.MethodPatch, base+"/draft", bearer, map[string]any{"amount": "3000"})
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodPost, base+"/next", bearer, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodPatch, base+"/draft", bearer, map[string]any{"method": "bank_transfer"})
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodPost, base+"/next", bearer, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodPatch, base+"/draft", bearer, map[string]any{
		"fields":       map[string]string{"bankName": "Meezan", "accountOwnerName": "Ali Khan", "accountNumber": "0123"},
		"reference_id": "TX-9",
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.uploadProof(t, id, bearer)
	require.Equal(t, http.StatusOK, code)
	return id
}

func TestDepositWizardOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	id := ts.openDepositAtDetails(t, bearer)

	code, body := ts.do(t, http.MethodPost, "/api/v1/wizards/"+id+"/submit", bearer, nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, "success", body["step_name"])
	assert.Equal(t, "Deposit request submitted", body["message"])
	require.Len(t, ts.gateway.deposits, 1)
	assert.Equal(t, "TX-9", ts.gateway.deposits[0].TransactionID)
	assert.Equal(t, "image/png", ts.gateway.deposits[0].Screenshot.ContentType)
}

func TestWizardValidationError(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)
	base := "/api/v1/wizards/" + body["id"].(string)

	ts.do(t, http.MethodPatch, base+"/draft", bearer, map[string]any{"amount": "2999"})
	code, body := ts.do(t, http.MethodPost, base+"/next", bearer, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "minimum amount is 3000", body["error"])
	assert.Equal(t, "amount", body["step_name"])
	stepErr := body["step_error"].(map[string]any)
	assert.Equal(t, "validation", stepErr["kind"])
}

func TestWizardIsScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/withdrawal", token(t, 7), nil)
	path := "/api/v1/wizards/" + body["id"].(string)

	code, _ := ts.do(t, http.MethodGet, path, token(t, 8), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(t, http.MethodGet, path, token(t, 7), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "method", body["step_name"])
}

func TestWizardRejectedSubmission(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.depositErr = &repository.APIError{StatusCode: 400, Message: "This transaction ID already exists or is invalid."}
	bearer := token(t, 7)
	id := ts.openDepositAtDetails(t, bearer)

	code, body := ts.do(t, http.MethodPost, "/api/v1/wizards/"+id+"/submit", bearer, nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "This transaction ID already exists or is invalid.", body["error"])
	assert.Equal(t, "proof_and_details", body["step_name"])
	draft := body["draft"].(map[string]any)
	assert.Equal(t, "TX-9", draft["reference_id"])
}

func TestWizardBackendUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.depositErr = repository.ErrUnauthorized
	bearer := token(t, 7)
	id := ts.openDepositAtDetails(t, bearer)

	code, _ := ts.do(t, http.MethodPost, "/api/v1/wizards/"+id+"/submit", bearer, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(t, http.MethodGet, "/api/v1/wizards/"+id, bearer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 0, ts.registry.Len())
}

func TestWizardConflictsAndCancel(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)
	base := "/api/v1/wizards/" + body["id"].(string)

	code, _ := ts.do(t, http.MethodPost, base+"/restart", bearer, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do(t, http.MethodPost, base+"/submit", bearer, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = ts.do(t, http.MethodPatch, base+"/draft", bearer, map[string]any{"method": "Crypto"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown payment method", body["error"])

	code, _ = ts.do(t, http.MethodDelete, base, bearer, nil)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 0, ts.registry.Len())
}

func TestProofMustBeImage(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("screenshot", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("just some text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wizards/"+body["id"].(string)+"/proof", &buf)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, resp := ts.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "please upload an image file", resp["error"])
}

func TestProofUploadMustBeMultipart(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wizards/"+body["id"].(string)+"/proof", bytes.NewBufferString(`{"a":1}`))
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	code, resp := ts.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid upload, expected multipart/form-data", resp["error"])
}

func TestProofUploadTooLarge(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, 7)
	_, body := ts.do(t, http.MethodPost, "/api/v1/wizards/deposit", bearer, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("screenshot", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(append(append([]byte{}, pngBytes...), make([]byte, 3<<20)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wizards/"+body["id"].(string)+"/proof", &buf)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, resp := ts.serve(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "image is too large", resp["error"])
}

func TestOptions(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.do(t, http.MethodGet, "/api/v1/methods", token(t, 7), nil)

	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["methods"], 3)
	assert.Equal(t, "3000", body["deposit_minimum"])
}

func TestRequiresCredential(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil)
	code, body := ts.serve(t, req)

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "session expired, please login again", body["error"])
}

func TestPortfolio(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.do(t, http.MethodGet, "/api/v1/portfolio", token(t, 7), nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "250", body["total_profit"])
	assert.Len(t, body["plans"], 1)
}

func TestInvestLockedPlan(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.plans = []models.InvestmentPlan{
		{ID: 1, Title: "Starter"},
		{ID: 2, Title: "VIP", IsLocked: true},
	}
	bearer := token(t, 7)

	code, body := ts.do(t, http.MethodPost, "/api/v1/plans/2/invest", bearer, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "This plan is locked", body["error"])

	code, body = ts.do(t, http.MethodPost, "/api/v1/plans/1/invest", bearer, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Investment successful", body["message"])
}

func TestBackendFailureMapsToBadGateway(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.planErr = repository.ErrTransport

	code, body := ts.do(t, http.MethodGet, "/api/v1/plans", token(t, 7), nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, repository.ErrTransport.Error(), body["error"])
}
