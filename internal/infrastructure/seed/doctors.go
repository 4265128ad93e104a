package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

type doctorsFile struct {
	Doctors []domain.Doctor `yaml:"doctors"`
}

func LoadDoctorsFile(path string) ([]domain.Doctor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open doctors seed: %w", err)
	}
	defer f.Close()
	return DecodeDoctors(f)
}

// DecodeDoctors reads a YAML directory. Every entry needs an id, a name and
// a specialty; weekday keys are lower-cased.
func DecodeDoctors(r io.Reader) ([]domain.Doctor, error) {
	var file doctorsFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return []domain.Doctor{}, nil
		}
		return nil, fmt.Errorf("decode doctors seed: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Doctors))
	for i := range file.Doctors {
		d := &file.Doctors[i]
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" || strings.TrimSpace(d.FullName) == "" || strings.TrimSpace(d.Specialty) == "" {
			return nil, fmt.Errorf("doctor #%d: id, full_name and specialty are required", i+1)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("doctor #%d: duplicate id %q", i+1, d.ID)
		}
		seen[d.ID] = struct{}{}
		d.AvailableSlots = domain.NormalizeSlots(d.AvailableSlots)
	}
	return file.Doctors, nil
}

func SeedDoctors(ctx context.Context, writer ports.DoctorWriter, doctors []domain.Doctor) error {
	for _, doctor := range doctors {
		if err := writer.UpsertDoctor(ctx, doctor); err != nil {
			return fmt.Errorf("seed doctor %s: %w", doctor.ID, err)
		}
	}
	slog.Info("doctors_seeded", "count", len(doctors))
	return nil
}
