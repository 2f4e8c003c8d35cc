package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/permission"
	"github.com/hms/hms/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	h := NewHandler(svc, permission.Default())
	e := echo.New()
	e.Validator = validate.New()
	return h, e
}

func actionContext(e *echo.Echo, id, body, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(context.Background(), "u-1", "tester", []string{role}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_CreateAppointment(t *testing.T) {
	h, e := newTestHandler()

	body := `{"patient_id":"5d1f0a3e-2c4b-4e8a-9f10-000000000001","fee":2500,"status":"completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if rec.Code != http.StatusCreated || a.Status != StatusPendingPayment {
		t.Errorf("expected 201 pending_payment, got %d %s", rec.Code, a.Status)
	}
}

func TestHandler_CreateAppointment_MissingPatient(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{"fee":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if code := httpCode(t, h.CreateAppointment(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_ApplyAction_RecordPayment(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	c, rec := actionContext(e, a.ID.String(), `{"action":"record_payment","amount":5000,"method":"cash"}`, "receptionist")
	if err := h.ApplyAction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Appointment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusPaid {
		t.Errorf("expected paid, got %s", got.Status)
	}
	if op, _ := c.Get(permission.ContextOperation).(string); op != "record_payment" {
		t.Errorf("expected audit operation record_payment, got %q", op)
	}
}

func TestHandler_ApplyAction_RecordPaymentNeedsBilling(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	c, _ := actionContext(e, a.ID.String(), `{"action":"record_payment","amount":5000,"method":"cash"}`, "nurse")
	if code := httpCode(t, h.ApplyAction(c)); code != http.StatusForbidden {
		t.Errorf("expected 403 for a role without billing:create, got %d", code)
	}
}

func TestHandler_ApplyAction_InvalidTransition(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	c, _ := actionContext(e, a.ID.String(), `{"action":"finish"}`, "doctor")
	if code := httpCode(t, h.ApplyAction(c)); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_ApplyAction_UnknownAction(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	c, _ := actionContext(e, a.ID.String(), `{"action":"teleport"}`, "doctor")
	if code := httpCode(t, h.ApplyAction(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}

	c, _ = actionContext(e, a.ID.String(), `{}`, "doctor")
	if code := httpCode(t, h.ApplyAction(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing action, got %d", code)
	}
}

func TestHandler_GetAllowedActions(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.GetAllowedActions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Status  Status   `json:"status"`
		Actions []Action `json:"actions"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != StatusPendingPayment || len(resp.Actions) != 2 {
		t.Errorf("unexpected actions %+v", resp)
	}
}

func TestHandler_ListAppointments(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)
	newAppointment(t, h.svc)

	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+a.PatientID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if code := httpCode(t, h.ListAppointments(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", code)
	}
}

func TestHandler_DeleteAppointment(t *testing.T) {
	h, e := newTestHandler()
	a := newAppointment(t, h.svc)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.DeleteAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
