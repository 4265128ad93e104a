package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

type AppointmentService struct {
	doctors      ports.DoctorDirectory
	appointments ports.AppointmentStore
	publisher    ports.BookingEventPublisher
	observer     ports.TriageObserver
	now          func() time.Time
}

func NewAppointmentService(
	doctors ports.DoctorDirectory,
	appointments ports.AppointmentStore,
	publisher ports.BookingEventPublisher,
	observer ports.TriageObserver,
) *AppointmentService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &AppointmentService{
		doctors:      doctors,
		appointments: appointments,
		publisher:    publisher,
		observer:     observer,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *AppointmentService) ListDoctors(ctx context.Context, specialty string) ([]domain.Doctor, error) {
	doctors, err := s.doctors.ListAvailableDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if strings.TrimSpace(specialty) == "" {
		return doctors, nil
	}
	return domain.FilterDoctors(doctors, specialty), nil
}

// Book validates the requested slot against the doctor's weekly
// availability and writes the appointment. Nothing is written when the
// slot is not offered.
func (s *AppointmentService) Book(
	ctx context.Context,
	user domain.User,
	req domain.BookingRequest,
	status domain.AppointmentStatus,
) (*domain.Appointment, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "book appointment", errors.New("user is required"))
	}
	if status == "" {
		status = domain.AppointmentPending
	}
	if status == domain.AppointmentCancelled {
		return nil, domain.WrapError(domain.ErrInvalidInput, "book appointment", errors.New("cannot book a cancelled appointment"))
	}

	doctorID := strings.TrimSpace(req.DoctorID)
	date := strings.TrimSpace(req.Date)
	slot := strings.TrimSpace(req.Time)
	if doctorID == "" || date == "" || slot == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "book appointment", errors.New("doctor, date and time are required"))
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "book appointment", fmt.Errorf("date must be YYYY-MM-DD: %w", err))
	}

	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !doctor.IsAvailable {
		return nil, domain.WrapError(domain.ErrInvalidInput, "book appointment", fmt.Errorf("doctor %s is not accepting appointments", doctorID))
	}
	if !doctor.HasSlot(date, slot) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "book appointment", fmt.Errorf("slot %s is not offered on %s", slot, date))
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Consultation with " + doctor.Specialty
	}

	now := s.now()
	appointment := &domain.Appointment{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		DoctorID:        doctor.ID,
		DoctorName:      doctor.FullName,
		Specialty:       doctor.Specialty,
		SessionID:       req.SessionID,
		Date:            date,
		Time:            slot,
		Reason:          reason,
		SymptomsSummary: req.SymptomsSummary,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.CreateAppointment(ctx, appointment); err != nil {
		s.observer.ObserveBooking(status, err)
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.observer.ObserveBooking(status, nil)

	s.announce(ctx, user, appointment)
	return appointment, nil
}

// announce queues the confirmation email. A failure here never undoes the
// booking.
func (s *AppointmentService) announce(ctx context.Context, user domain.User, appointment *domain.Appointment) {
	if s.publisher == nil {
		return
	}
	event := domain.AppointmentBooked{
		AppointmentID: appointment.ID,
		UserEmail:     user.Email,
		UserName:      user.Name,
		DoctorName:    appointment.DoctorName,
		Specialty:     appointment.Specialty,
		Date:          appointment.Date,
		Time:          appointment.Time,
		Reason:        appointment.Reason,
		BookedAt:      appointment.CreatedAt,
	}
	if err := s.publisher.PublishAppointmentBooked(ctx, event); err != nil {
		slog.Warn("appointment_confirmation_not_queued",
			"appointment_id", appointment.ID,
			"user_id", user.ID,
			"error", err,
		)
	}
}

func (s *AppointmentService) ListForUser(ctx context.Context, user domain.User) ([]domain.Appointment, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "list appointments", errors.New("user is required"))
	}
	appointments, err := s.appointments.ListAppointments(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, user domain.User, appointmentID string) error {
	if strings.TrimSpace(user.ID) == "" {
		return domain.WrapError(domain.ErrUnauthorized, "cancel appointment", errors.New("user is required"))
	}
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "cancel appointment", errors.New("appointment id is required"))
	}
	if err := s.appointments.CancelAppointment(ctx, user.ID, appointmentID); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	return nil
}
