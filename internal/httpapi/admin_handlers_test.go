package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/numbers"
	"receptionist-platform/internal/orgs"

	"github.com/gin-gonic/gin"
)

func adminRouter(t *testing.T) (*gin.Engine, *orgs.MemoryStore, *numbers.MemoryStore, *audit.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orgStore := orgs.NewMemoryStore()
	numberStore := numbers.NewMemoryStore()
	auditRepo := audit.NewMemoryRepo()

	h := AdminHandlers{
		Orgs:    orgStore,
		Numbers: numberStore,
		Audit:   audit.NewService(auditRepo),
	}
	r := gin.New()
	r.POST("/v1/admin/orgs", h.CreateOrg)
	r.POST("/v1/admin/orgs/:org_id/numbers", h.AssignNumber)
	r.POST("/v1/admin/numbers/:number_id/release", h.ReleaseNumber)
	return r, orgStore, numberStore, auditRepo
}

func TestAdminCreateOrg(t *testing.T) {
	r, orgStore, _, auditRepo := adminRouter(t)

	body := `{"name":"Lakeside Dental","owner_user_id":"u-owner"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/orgs", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var org orgs.Organization
	if err := json.Unmarshal(w.Body.Bytes(), &org); err != nil {
		t.Fatalf("decode org: %v", err)
	}
	ok, err := orgStore.IsMember(context.Background(), org.ID, "u-owner")
	if err != nil || !ok {
		t.Fatalf("expected owner membership, got %v %v", ok, err)
	}

	events := auditRepo.Events()
	if len(events) != 1 || events[0].Type != audit.EventTypeAdminAction {
		t.Fatalf("expected one admin audit event, got %+v", events)
	}
}

func TestAdminCreateOrg_MissingFields(t *testing.T) {
	r, _, _, _ := adminRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/orgs", strings.NewReader(`{"name":"No Owner"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdminNumberLifecycle(t *testing.T) {
	r, _, numberStore, _ := adminRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/orgs/org-1/numbers",
		strings.NewReader(`{"number":"+15557654321"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var n numbers.PhoneNumber
	if err := json.Unmarshal(w.Body.Bytes(), &n); err != nil {
		t.Fatalf("decode number: %v", err)
	}

	// same number for a second org conflicts while the first is active
	req = httptest.NewRequest(http.MethodPost, "/v1/admin/orgs/org-2/numbers",
		strings.NewReader(`{"number":"+15557654321"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate assignment, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/numbers/"+n.ID+"/release", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on release, got %d", w.Code)
	}
	if _, err := numberStore.FindActiveByNumber(context.Background(), "+15557654321"); err == nil {
		t.Fatalf("expected released number to stop resolving")
	}
}

func TestAdminReleaseNumber_Unknown(t *testing.T) {
	r, _, _, _ := adminRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/numbers/missing/release", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
