package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/imgaltgen/imgaltgen/internal/auth"
	"github.com/imgaltgen/imgaltgen/internal/generate"
	"github.com/imgaltgen/imgaltgen/internal/models"
)

const testSecret = "test-secret"

type stubService struct {
	result *generate.Result
	err    error
	gotURL string
	gotUID string
}

func (s *stubService) Generate(ctx context.Context, userID, imageURL string) (*generate.Result, error) {
	s.gotUID = userID
	s.gotURL = imageURL
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCredits struct {
	status *models.CreditStatus
	err    error
}

func (s *stubCredits) Peek(ctx context.Context, userID string) (*models.CreditStatus, error) {
	return s.status, s.err
}

type stubHistory struct {
	records []models.Generation
	err     error
	gotUID  string
}

func (s *stubHistory) ListGenerationsByUser(ctx context.Context, userID string, limit int) ([]models.Generation, error) {
	s.gotUID = userID
	return s.records, s.err
}

func newTestRouter(svc GenerateService, credits CreditReader, history HistoryStore) *mux.Router {
	router := mux.NewRouter()
	handler := NewHandler(svc, credits, history)
	handler.RegisterRoutes(router, auth.NewMiddleware(testSecret))
	return router
}

func authedRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()

	token, err := auth.GenerateToken("user-1", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestGenerateEndpointSuccess(t *testing.T) {
	svc := &stubService{result: &generate.Result{
		AltText:          "A dog catching a frisbee mid-air.",
		CreditsRemaining: 7,
	}}
	router := newTestRouter(svc, &stubCredits{}, &stubHistory{})

	body := []byte(`{"imageUrl":"https://cdn.example.com/uploads/dog.jpg"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/generate", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AltText          string `json:"altText"`
		CreditsRemaining int    `json:"creditsRemaining"`
		Warning          string `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AltText != "A dog catching a frisbee mid-air." || resp.CreditsRemaining != 7 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Warning != "" {
		t.Errorf("warning should be omitted on clean success, got %q", resp.Warning)
	}
	if svc.gotUID != "user-1" {
		t.Errorf("service saw user %q", svc.gotUID)
	}
	if svc.gotURL != "https://cdn.example.com/uploads/dog.jpg" {
		t.Errorf("service saw url %q", svc.gotURL)
	}
}

func TestGenerateEndpointUnauthenticated(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubCredits{}, &stubHistory{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/generate", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGenerateEndpointBadToken(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubCredits{}, &stubHistory{})

	token, _ := auth.GenerateToken("user-1", "wrong-secret")
	req := httptest.NewRequest("POST", "/generate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGenerateEndpointInvalidInput(t *testing.T) {
	for _, svcErr := range []error{generate.ErrMissingImageURL, generate.ErrInvalidImageType} {
		router := newTestRouter(&stubService{err: svcErr}, &stubCredits{}, &stubHistory{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, "POST", "/generate", []byte(`{"imageUrl":"x"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", svcErr, rec.Code)
		}
	}
}

func TestGenerateEndpointQuotaExceeded(t *testing.T) {
	reset := time.Now().Add(3 * time.Hour).UnixMilli()
	svc := &stubService{err: &generate.QuotaError{
		Remaining: 0,
		Reset:     reset,
		ResetDate: time.UnixMilli(reset).UTC(),
	}}
	router := newTestRouter(svc, &stubCredits{}, &stubHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/generate", []byte(`{"imageUrl":"https://x/y.png"}`)))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var resp struct {
		Error     string    `json:"error"`
		Remaining int       `json:"remaining"`
		Reset     int64     `json:"reset"`
		ResetDate time.Time `json:"resetDate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" || resp.Reset != reset {
		t.Errorf("unexpected 429 body: %+v", resp)
	}
	if !resp.ResetDate.After(time.Now()) {
		t.Errorf("resetDate %v should be in the future", resp.ResetDate)
	}
}

func TestGenerateEndpointInternalError(t *testing.T) {
	router := newTestRouter(&stubService{err: errors.New("redis unreachable")}, &stubCredits{}, &stubHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/generate", []byte(`{"imageUrl":"https://x/y.png"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGenerateEndpointWarningSurfaced(t *testing.T) {
	svc := &stubService{result: &generate.Result{
		AltText: "A ferry crossing a calm harbor.",
		Warning: "credit could not be consumed",
	}}
	router := newTestRouter(svc, &stubCredits{}, &stubHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/generate", []byte(`{"imageUrl":"https://x/y.png"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["warning"] != "credit could not be consumed" {
		t.Errorf("warning missing from response: %v", resp)
	}
}

func TestCreditsEndpoint(t *testing.T) {
	reset := time.Now().Add(time.Hour).UnixMilli()
	credits := &stubCredits{status: &models.CreditStatus{
		Used:      3,
		Remaining: 7,
		Limit:     10,
		Reset:     reset,
		ResetDate: time.UnixMilli(reset).UTC(),
	}}
	router := newTestRouter(&stubService{}, credits, &stubHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "GET", "/credits", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status models.CreditStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Used != 3 || status.Remaining != 7 || status.Limit != 10 {
		t.Errorf("unexpected credits body: %+v", status)
	}
}

func TestCreditsEndpointUnauthenticated(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubCredits{}, &stubHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/credits", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHistoryEndpointOwnerScoped(t *testing.T) {
	history := &stubHistory{records: []models.Generation{
		{ID: 2, UserID: "user-1", ImageURL: "https://x/b.png", AltText: "b", CreatedAt: time.Now()},
		{ID: 1, UserID: "user-1", ImageURL: "https://x/a.png", AltText: "a", CreatedAt: time.Now().Add(-time.Minute)},
	}}
	router := newTestRouter(&stubService{}, &stubCredits{}, history)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "GET", "/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if history.gotUID != "user-1" {
		t.Errorf("history queried for %q, want the authenticated user", history.gotUID)
	}

	var records []models.Generation
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != 2 {
		t.Errorf("unexpected history body: %+v", records)
	}
}
