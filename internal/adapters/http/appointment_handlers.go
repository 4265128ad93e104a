package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

func (rt *Router) listDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := rt.appointments.ListDoctors(r.Context(), r.URL.Query().Get("specialty"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// bookAppointment books straight from the doctor directory. Such bookings
// wait for the clinic to confirm them.
func (rt *Router) bookAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appointment, err := rt.appointments.Book(r.Context(), user, domain.BookingRequest{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	}, domain.AppointmentPending)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

func (rt *Router) listAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	appointments, err := rt.appointments.ListForUser(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (rt *Router) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := rt.appointments.Cancel(r.Context(), user, chi.URLParam(r, "appointment_id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
