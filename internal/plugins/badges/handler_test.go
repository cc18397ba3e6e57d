package badges

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/plugins/audit"
)

// mockService implements BadgeService for handler tests.
type mockService struct {
	BadgeService

	listFn   func(ctx context.Context, activeOnly bool) ([]Badge, error)
	createFn func(ctx context.Context, input BadgeInput) (*Badge, error)
}

func (m *mockService) List(ctx context.Context, activeOnly bool) ([]Badge, error) {
	return m.listFn(ctx, activeOnly)
}

func (m *mockService) Create(ctx context.Context, input BadgeInput) (*Badge, error) {
	return m.createFn(ctx, input)
}

type mockAudit struct {
	entries []audit.Entry
}

func (m *mockAudit) Log(ctx context.Context, entry *audit.Entry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAudit) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	return m.entries, nil
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("auth_user_id", "admin-1")
	return c, rec
}

func TestHandlerList_ActiveFilter(t *testing.T) {
	var gotActive bool
	svc := &mockService{listFn: func(ctx context.Context, activeOnly bool) ([]Badge, error) {
		gotActive = activeOnly
		return []Badge{}, nil
	}}
	h := NewHandler(svc, nil, nil)

	c, rec := newJSONContext(http.MethodGet, "/badges?active=1", "")
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotActive || rec.Code != http.StatusOK {
		t.Errorf("expected active filter and 200, got active=%v code=%d", gotActive, rec.Code)
	}

	c, _ = newJSONContext(http.MethodGet, "/badges?active=maybe", "")
	assertAppError(t, h.List(c), http.StatusBadRequest)
}

func TestHandlerCreate_ValidatesAndAudits(t *testing.T) {
	svc := &mockService{createFn: func(ctx context.Context, input BadgeInput) (*Badge, error) {
		return &Badge{ID: 12, Name: input.Name, Settings: input.Settings, IsActive: true}, nil
	}}
	auditLog := &mockAudit{}
	h := NewHandler(svc, nil, auditLog)

	c, rec := newJSONContext(http.MethodPost, "/badges", `{"name":"Visa","settings":{"image":"visa.svg"}}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Badge
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID != 12 || got.Settings["image"] != "visa.svg" {
		t.Errorf("unexpected response: %+v", got)
	}
	if len(auditLog.entries) != 1 || auditLog.entries[0].Action != ActionBadgeCreated || auditLog.entries[0].TargetID != "12" {
		t.Errorf("unexpected audit entries: %+v", auditLog.entries)
	}

	c, _ = newJSONContext(http.MethodPost, "/badges", `{"settings":{}}`)
	appErr := assertAppError(t, h.Create(c), http.StatusBadRequest)
	if appErr.Fields["name"] == "" {
		t.Errorf("expected name field error, got %+v", appErr.Fields)
	}
}

func TestHandlerDelete_RejectsBadID(t *testing.T) {
	h := NewHandler(&mockService{}, nil, nil)

	c, _ := newJSONContext(http.MethodDelete, "/badges/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assertAppError(t, h.Delete(c), http.StatusBadRequest)
}
