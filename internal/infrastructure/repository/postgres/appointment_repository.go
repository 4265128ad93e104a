package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

type AppointmentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	sessionID := sql.NullString{String: appointment.SessionID, Valid: appointment.SessionID != ""}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO appointments (
	id, user_id, doctor_id, session_id, appointment_date, appointment_time, reason, symptoms_summary, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		appointment.ID, appointment.UserID, appointment.DoctorID, sessionID, appointment.Date, appointment.Time,
		appointment.Reason, appointment.SymptomsSummary, string(appointment.Status), appointment.CreatedAt, appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "create appointment", errors.New("slot is already booked"))
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// ListAppointments returns the user's appointments in calendar order.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, userID string) ([]domain.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT a.id, a.user_id, a.doctor_id, d.full_name, d.specialty, COALESCE(a.session_id, ''),
	a.appointment_date, a.appointment_time, a.reason, a.symptoms_summary, a.status, a.created_at, a.updated_at
FROM appointments a
JOIN doctors d ON d.id = a.doctor_id
WHERE a.user_id = $1
ORDER BY a.appointment_date ASC, a.appointment_time ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

// CancelAppointment is one-way. Cancelling twice, or cancelling another
// user's appointment, reports not found.
func (r *AppointmentRepository) CancelAppointment(ctx context.Context, userID, appointmentID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE appointments
SET status = $3, updated_at = $4
WHERE user_id = $1 AND id = $2 AND status <> $3
`, userID, appointmentID, string(domain.AppointmentCancelled), r.now())
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel appointment rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "cancel appointment", fmt.Errorf("appointment not found: id=%s", appointmentID))
	}
	return nil
}

func scanAppointment(row rowScanner) (domain.Appointment, error) {
	var appointment domain.Appointment
	var date time.Time
	var status string
	err := row.Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.DoctorID,
		&appointment.DoctorName,
		&appointment.Specialty,
		&appointment.SessionID,
		&date,
		&appointment.Time,
		&appointment.Reason,
		&appointment.SymptomsSummary,
		&status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("scan appointment: %w", err)
	}
	appointment.Date = date.Format(domain.DateLayout)
	appointment.Status = domain.AppointmentStatus(status)
	return appointment, nil
}
