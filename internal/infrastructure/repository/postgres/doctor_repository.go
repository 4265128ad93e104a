package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

type DoctorRepository struct {
	db *sql.DB
}

func NewDoctorRepository(db *sql.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorColumns = `id, full_name, specialty, email, phone, bio, years_experience, consultation_fee, rating, is_available, available_slots, created_at`

func (r *DoctorRepository) ListAvailableDoctors(ctx context.Context) ([]domain.Doctor, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+doctorColumns+`
FROM doctors
WHERE is_available = TRUE
ORDER BY rating DESC, full_name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Doctor, 0)
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}
	return out, nil
}

func (r *DoctorRepository) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+doctorColumns+`
FROM doctors
WHERE id = $1
`, id)

	doctor, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get doctor", fmt.Errorf("doctor not found: id=%s", id))
		}
		return nil, err
	}
	return &doctor, nil
}

// UpsertDoctor inserts or refreshes a directory entry by id.
func (r *DoctorRepository) UpsertDoctor(ctx context.Context, doctor domain.Doctor) error {
	slotsJSON, err := json.Marshal(domain.NormalizeSlots(doctor.AvailableSlots))
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	createdAt := doctor.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO doctors (`+doctorColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	specialty = EXCLUDED.specialty,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	bio = EXCLUDED.bio,
	years_experience = EXCLUDED.years_experience,
	consultation_fee = EXCLUDED.consultation_fee,
	rating = EXCLUDED.rating,
	is_available = EXCLUDED.is_available,
	available_slots = EXCLUDED.available_slots
`,
		doctor.ID, doctor.FullName, doctor.Specialty, doctor.Email, doctor.Phone, doctor.Bio,
		doctor.YearsExperience, doctor.ConsultationFee, doctor.Rating, doctor.IsAvailable, slotsJSON, createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert doctor: %w", err)
	}
	return nil
}

func scanDoctor(row rowScanner) (domain.Doctor, error) {
	var doctor domain.Doctor
	var slotsRaw []byte
	err := row.Scan(
		&doctor.ID,
		&doctor.FullName,
		&doctor.Specialty,
		&doctor.Email,
		&doctor.Phone,
		&doctor.Bio,
		&doctor.YearsExperience,
		&doctor.ConsultationFee,
		&doctor.Rating,
		&doctor.IsAvailable,
		&slotsRaw,
		&doctor.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Doctor{}, err
		}
		return domain.Doctor{}, fmt.Errorf("scan doctor: %w", err)
	}
	var slots domain.WeeklySlots
	if len(slotsRaw) > 0 {
		if err := json.Unmarshal(slotsRaw, &slots); err != nil {
			return domain.Doctor{}, fmt.Errorf("unmarshal slots: %w", err)
		}
	}
	doctor.AvailableSlots = domain.NormalizeSlots(slots)
	return doctor, nil
}
