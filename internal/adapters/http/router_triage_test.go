package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

func TestHealthzEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestTriageRoutesRequireBearerToken(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	res := env.do(t, "", http.MethodPost, "/v1/triage/sessions", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/triage/sessions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	res = httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", res.Code)
	}
}

func TestTriageSessionFlowThroughBooking(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.booker.doctors = []domain.Doctor{{ID: "doc-1", FullName: "Dr. Sarah Chen", Specialty: domain.GeneralPractitioner}}

	res := env.do(t, "u1", http.MethodPost, "/v1/triage/sessions", nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	view := decodeView(t, res)
	base := "/v1/triage/sessions/" + view.SessionID
	if view.Step != domain.StepInput {
		t.Fatalf("expected input step, got %s", view.Step)
	}

	res = env.do(t, "u1", http.MethodPost, base+"/symptoms", symptomRequest{Symptom: "Headache"})
	if res.Code != http.StatusOK {
		t.Fatalf("add symptom: expected 200, got %d", res.Code)
	}

	res = env.do(t, "u1", http.MethodPost, base+"/analyze", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", res.Code, res.Body.String())
	}
	view = decodeView(t, res)
	if view.Step != domain.StepResult || view.Verdict == nil {
		t.Fatalf("expected result with verdict, got %+v", view)
	}
	if len(env.store.created) != 1 {
		t.Fatalf("expected one saved session, got %d", len(env.store.created))
	}

	res = env.do(t, "u1", http.MethodPost, base+"/booking", nil)
	if view = decodeView(t, res); view.Step != domain.StepBooking {
		t.Fatalf("expected booking step, got %s", view.Step)
	}

	res = env.do(t, "u1", http.MethodGet, base+"/doctors", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("doctors: expected 200, got %d", res.Code)
	}

	res = env.do(t, "u1", http.MethodPost, base+"/booking/confirm", domain.BookingRequest{
		DoctorID: "doc-1",
		Date:     "2026-10-19",
		Time:     "09:00",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("confirm: expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var confirmed confirmBookingResponse
	if err := json.NewDecoder(res.Body).Decode(&confirmed); err != nil {
		t.Fatalf("decode confirm response: %v", err)
	}
	if confirmed.Session.Step != domain.StepBooked || confirmed.Appointment.ID != "appt-1" {
		t.Fatalf("unexpected confirm response %+v", confirmed)
	}
	if env.booker.statuses[0] != domain.AppointmentConfirmed {
		t.Fatalf("expected wizard booking to be confirmed, got %s", env.booker.statuses[0])
	}
	if env.booker.booked[0].SessionID != env.store.created[0].ID {
		t.Fatalf("expected booking linked to saved session")
	}
}

func TestTriageSessionOfAnotherUserIsNotFound(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	view := decodeView(t, env.do(t, "owner", http.MethodPost, "/v1/triage/sessions", nil))

	res := env.do(t, "intruder", http.MethodGet, "/v1/triage/sessions/"+view.SessionID, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestAnalyzeWithoutSymptomsReturns400(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	view := decodeView(t, env.do(t, "u1", http.MethodPost, "/v1/triage/sessions", nil))

	res := env.do(t, "u1", http.MethodPost, "/v1/triage/sessions/"+view.SessionID+"/analyze", nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if len(env.classifier.requests) != 0 {
		t.Fatalf("classifier must not be called for empty input")
	}
}

func TestRemoveSymptomUnescapesPath(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	view := decodeView(t, env.do(t, "u1", http.MethodPost, "/v1/triage/sessions", nil))
	base := "/v1/triage/sessions/" + view.SessionID

	env.do(t, "u1", http.MethodPost, base+"/symptoms", symptomRequest{Symptom: "sore throat"})
	res := env.do(t, "u1", http.MethodDelete, base+"/symptoms/sore%20throat", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if view = decodeView(t, res); len(view.Input.Tags) != 0 {
		t.Fatalf("expected tag removed, got %v", view.Input.Tags)
	}
}

func TestEmergencyVerdictCannotOpenBooking(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.classifier.verdicts = []domain.Verdict{{Urgency: domain.UrgencyEmergency, Summary: "call now"}}
	view := decodeView(t, env.do(t, "u1", http.MethodPost, "/v1/triage/sessions", nil))
	base := "/v1/triage/sessions/" + view.SessionID

	env.do(t, "u1", http.MethodPost, base+"/symptoms", symptomRequest{Symptom: "Chest Pain"})
	view = decodeView(t, env.do(t, "u1", http.MethodPost, base+"/analyze", nil))
	if !view.ActionEnabled(domain.ActionCallEmergency) || view.HasAction(domain.ActionBookAppointment) {
		t.Fatalf("expected emergency actions only, got %+v", view.Actions)
	}

	res := env.do(t, "u1", http.MethodPost, base+"/booking", nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestFollowUpAnswerAndStartOver(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.classifier.verdicts = []domain.Verdict{
		{Urgency: domain.UrgencyRoutine, NeedsClarification: true, FollowUpQuestions: []string{"How long?"}},
		{Urgency: domain.UrgencyRoutine, Summary: "rest"},
	}
	view := decodeView(t, env.do(t, "u1", http.MethodPost, "/v1/triage/sessions", nil))
	base := "/v1/triage/sessions/" + view.SessionID

	env.do(t, "u1", http.MethodPut, base+"/narrative", narrativeRequest{Narrative: "tired for days"})
	view = decodeView(t, env.do(t, "u1", http.MethodPost, base+"/analyze", nil))
	if view.Step != domain.StepFollowUp || view.FollowUp == nil || view.FollowUp.Question != "How long?" {
		t.Fatalf("expected follow-up question, got %+v", view)
	}

	res := env.do(t, "u1", http.MethodPost, base+"/followup/answer", answerRequest{Answer: " "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank answer, got %d", res.Code)
	}

	view = decodeView(t, env.do(t, "u1", http.MethodPost, base+"/followup/answer", answerRequest{Answer: "three days"}))
	if view.Step != domain.StepResult {
		t.Fatalf("expected result after last answer, got %s", view.Step)
	}
	last := env.classifier.requests[len(env.classifier.requests)-1]
	if len(last.FollowUpResponses) != 1 || last.FollowUpResponses[0].Answer != "three days" {
		t.Fatalf("expected answers forwarded to classifier, got %+v", last.FollowUpResponses)
	}

	view = decodeView(t, env.do(t, "u1", http.MethodPost, base+"/start-over", nil))
	if view.Step != domain.StepInput || view.Verdict != nil || len(view.Input.Tags) != 0 || view.Input.Narrative != "" {
		t.Fatalf("expected a clean input step, got %+v", view)
	}
}

func TestAppointmentEndpoints(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	res := env.do(t, "u1", http.MethodPost, "/v1/appointments", domain.BookingRequest{
		DoctorID: "doc-1",
		Date:     "2026-10-19",
		Time:     "10:00",
		Reason:   "checkup",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code)
	}
	if env.booker.statuses[0] != domain.AppointmentPending {
		t.Fatalf("expected direct booking to be pending, got %s", env.booker.statuses[0])
	}

	res = env.do(t, "u1", http.MethodGet, "/v1/appointments", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	res = env.do(t, "u1", http.MethodPost, "/v1/appointments/appt-1/cancel", nil)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}
