package httpadapter

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

type symptomRequest struct {
	Symptom string `json:"symptom"`
}

type narrativeRequest struct {
	Narrative string `json:"narrative"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type confirmBookingResponse struct {
	Appointment *domain.Appointment `json:"appointment"`
	Session     domain.TriageView   `json:"session"`
}

func (rt *Router) startSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	wizard, err := rt.sessions.Start(user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/triage/sessions/"+wizard.ID())
	writeJSON(w, http.StatusCreated, wizard.View())
}

// wizard resolves the session in the path for the calling user and writes
// the error response itself when it cannot.
func (rt *Router) wizard(w http.ResponseWriter, r *http.Request) (ports.TriageWizard, bool) {
	user, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	wizard, err := rt.sessions.Lookup(user, chi.URLParam(r, "session_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return wizard, true
}

// mutate runs a state-changing wizard action and replies with the fresh view.
func (rt *Router) mutate(w http.ResponseWriter, r *http.Request, action func(ports.TriageWizard) error) {
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	if err := action(wizard); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizard.View())
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wizard.View())
}

func (rt *Router) addSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rt.mutate(w, r, func(wizard ports.TriageWizard) error {
		return wizard.AddSymptom(req.Symptom)
	})
}

func (rt *Router) removeSymptom(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "symptom")
	if unescaped, err := url.PathUnescape(tag); err == nil {
		tag = unescaped
	}
	rt.mutate(w, r, func(wizard ports.TriageWizard) error {
		return wizard.RemoveSymptom(tag)
	})
}

func (rt *Router) setNarrative(w http.ResponseWriter, r *http.Request) {
	var req narrativeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rt.mutate(w, r, func(wizard ports.TriageWizard) error {
		return wizard.SetNarrative(req.Narrative)
	})
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	view, err := wizard.Analyze(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) answerFollowUp(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	view, err := wizard.AnswerFollowUp(r.Context(), req.Answer)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) backFromFollowUp(w http.ResponseWriter, r *http.Request) {
	rt.mutate(w, r, ports.TriageWizard.BackFromFollowUp)
}

func (rt *Router) openBooking(w http.ResponseWriter, r *http.Request) {
	rt.mutate(w, r, ports.TriageWizard.OpenBooking)
}

func (rt *Router) backToResult(w http.ResponseWriter, r *http.Request) {
	rt.mutate(w, r, ports.TriageWizard.BackToResult)
}

func (rt *Router) startOver(w http.ResponseWriter, r *http.Request) {
	rt.mutate(w, r, ports.TriageWizard.StartOver)
}

func (rt *Router) dismissNotices(w http.ResponseWriter, r *http.Request) {
	rt.mutate(w, r, func(wizard ports.TriageWizard) error {
		wizard.DismissNotices()
		return nil
	})
}

func (rt *Router) sessionDoctors(w http.ResponseWriter, r *http.Request) {
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	doctors, err := wizard.AvailableDoctors(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

func (rt *Router) confirmBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wizard, ok := rt.wizard(w, r)
	if !ok {
		return
	}
	appointment, err := wizard.ConfirmBooking(r.Context(), domain.BookingRequest{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmBookingResponse{
		Appointment: appointment,
		Session:     wizard.View(),
	})
}
