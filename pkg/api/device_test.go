package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/api/resource"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/orchestrator"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage/memory"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
)

type downDialer struct{}

func (downDialer) Dial(scope string) (transport.Client, error) {
	return nil, transport.ErrNoDialer
}

type noopCreds struct{}

func (noopCreds) Exists(scope string) (bool, error) { return false, nil }
func (noopCreds) Copy(fromScope, toScope string) error { return nil }
func (noopCreds) Delete(scope string) error { return nil }

func newTestServer() *echo.Echo {
	ctrl := orchestrator.NewController(memory.NewStore(), noopCreds{}, downDialer{},
		orchestrator.NewRegistry(), nil, orchestrator.DefaultOptions())

	e := echo.New()
	NewHandler(ctrl, nil).RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDeviceCRUDOverHTTP(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/v1/tenants/t1/devices",
		`{"name":"phone","description":"primary","createdBy":"user-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created := resource.DeviceResource{}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal device: %v", err)
	}
	if created.Name != "phone" || created.Status != "disconnected" {
		t.Fatalf("unexpected device: %+v", created)
	}

	// Duplicate name in the same tenant conflicts.
	rec = doJSON(e, http.MethodPost, "/api/v1/tenants/t1/devices",
		`{"name":"phone","createdBy":"user-1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// The same name in another tenant does not.
	rec = doJSON(e, http.MethodPost, "/api/v1/tenants/t2/devices",
		`{"name":"phone","createdBy":"user-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/tenants/t1/devices/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/tenants/t1/devices/no-such-id", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/tenants/t1/devices/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/api/v1/tenants/t1/devices/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestStartPairingMapsTransportFailure(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/v1/tenants/t1/pairing",
		`{"name":"phone","createdBy":"user-1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no transport binding is up, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStartPairingValidation(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/v1/tenants/t1/pairing", `{"createdBy":"user-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}
}
