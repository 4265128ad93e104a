package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

type verdictClassifierFake struct {
	mu       sync.Mutex
	verdicts []domain.Verdict
	errs     []error
	requests []domain.ClassificationRequest
	release  chan struct{}
	entered  chan struct{}
}

func (f *verdictClassifierFake) Classify(ctx context.Context, req domain.ClassificationRequest) (domain.Verdict, error) {
	f.mu.Lock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return domain.Verdict{}, ctx.Err()
		}
	}

	var err error
	if call < len(f.errs) {
		err = f.errs[call]
	}
	if err != nil {
		return domain.Verdict{}, err
	}
	if len(f.verdicts) == 0 {
		return domain.Verdict{}, errors.New("no verdict configured")
	}
	if call >= len(f.verdicts) {
		return f.verdicts[len(f.verdicts)-1], nil
	}
	return f.verdicts[call], nil
}

func (f *verdictClassifierFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type sessionStoreFake struct {
	mu      sync.Mutex
	created []domain.TriageSession
	listed  []domain.TriageSession
	limit   int
	err     error
	listErr error
}

func (f *sessionStoreFake) CreateSession(ctx context.Context, session *domain.TriageSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *session)
	return nil
}

func (f *sessionStoreFake) ListSessions(_ context.Context, _ string, limit int) ([]domain.TriageSession, error) {
	f.limit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

type doctorDirectoryFake struct {
	doctors []domain.Doctor
	err     error
}

func (f *doctorDirectoryFake) ListAvailableDoctors(context.Context) ([]domain.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doctors, nil
}

func (f *doctorDirectoryFake) GetDoctor(_ context.Context, id string) (*domain.Doctor, error) {
	for i := range f.doctors {
		if f.doctors[i].ID == id {
			d := f.doctors[i]
			return &d, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get doctor", errors.New("doctor not found"))
}

type appointmentStoreFake struct {
	created   []domain.Appointment
	cancelled []string
	err       error
}

func (f *appointmentStoreFake) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *appointment)
	return nil
}

func (f *appointmentStoreFake) ListAppointments(_ context.Context, userID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.created {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *appointmentStoreFake) CancelAppointment(_ context.Context, _ string, appointmentID string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, appointmentID)
	return nil
}

type bookingPublisherFake struct {
	events []domain.AppointmentBooked
	err    error
}

func (f *bookingPublisherFake) PublishAppointmentBooked(_ context.Context, event domain.AppointmentBooked) error {
	f.events = append(f.events, event)
	return f.err
}

type emailSenderFake struct {
	sent []domain.Email
	err  error
}

func (f *emailSenderFake) Send(_ context.Context, email domain.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type sessionExporterFake struct {
	exported []domain.TriageSession
}

func (f *sessionExporterFake) ExportSessions(w io.Writer, sessions []domain.TriageSession) error {
	f.exported = sessions
	_, err := io.WriteString(w, "xlsx")
	return err
}

type transitionRecorder struct {
	mu          sync.Mutex
	transitions [][2]domain.Step
	degraded    int
}

func (r *transitionRecorder) ObserveClassification(_ domain.Urgency, degraded bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if degraded {
		r.degraded++
	}
}

func (r *transitionRecorder) ObserveTransition(from, to domain.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, [2]domain.Step{from, to})
}

func (r *transitionRecorder) ObserveSessionSaved(domain.SessionStatus, error) {}

func (r *transitionRecorder) ObserveBooking(domain.AppointmentStatus, error) {}

func mondayDoctor() domain.Doctor {
	return domain.Doctor{
		ID:          "doc-1",
		FullName:    "Dr. Ada Moss",
		Specialty:   domain.GeneralPractitioner,
		IsAvailable: true,
		AvailableSlots: domain.WeeklySlots{
			"monday": {"09:00", "10:00"},
		},
	}
}

func routineVerdict() domain.Verdict {
	return domain.Verdict{
		Urgency:               domain.UrgencyRoutine,
		PossibleConditions:    []string{"Common cold"},
		SymptomCategories:     []string{"respiratory"},
		HomeRemedies:          []string{"Rest"},
		RecommendedSpecialist: domain.GeneralPractitioner,
		Summary:               "Likely a mild cold.",
	}
}
