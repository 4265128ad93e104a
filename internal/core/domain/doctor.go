package domain

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// WeeklySlots maps a lower-case weekday name to bookable times.
type WeeklySlots map[string][]string

type Doctor struct {
	ID              string      `json:"id" yaml:"id"`
	FullName        string      `json:"full_name" yaml:"full_name"`
	Specialty       string      `json:"specialty" yaml:"specialty"`
	Email           string      `json:"email,omitempty" yaml:"email"`
	Phone           string      `json:"phone,omitempty" yaml:"phone"`
	Bio             string      `json:"bio,omitempty" yaml:"bio"`
	YearsExperience int         `json:"years_experience,omitempty" yaml:"years_experience"`
	ConsultationFee float64     `json:"consultation_fee,omitempty" yaml:"consultation_fee"`
	Rating          float64     `json:"rating,omitempty" yaml:"rating"`
	IsAvailable     bool        `json:"is_available" yaml:"is_available"`
	AvailableSlots  WeeklySlots `json:"available_slots" yaml:"available_slots"`
	CreatedAt       time.Time   `json:"created_at" yaml:"-"`
}

// SlotsOn returns the doctor's slots for the weekday of a YYYY-MM-DD date.
func (d Doctor) SlotsOn(date string) ([]string, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	if d.AvailableSlots == nil {
		return nil, nil
	}
	return d.AvailableSlots[strings.ToLower(day.Weekday().String())], nil
}

func (d Doctor) HasSlot(date, slot string) bool {
	slots, err := d.SlotsOn(date)
	if err != nil {
		return false
	}
	slot = strings.TrimSpace(slot)
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// MatchesSpecialty applies the directory filter: a case-insensitive
// substring match in either direction, with general practitioners always
// included.
func (d Doctor) MatchesSpecialty(recommended string) bool {
	if strings.EqualFold(strings.TrimSpace(d.Specialty), GeneralPractitioner) {
		return true
	}
	own := strings.ToLower(strings.TrimSpace(d.Specialty))
	want := strings.ToLower(strings.TrimSpace(recommended))
	if own == "" || want == "" {
		return false
	}
	return strings.Contains(own, want) || strings.Contains(want, own)
}

func FilterDoctors(doctors []Doctor, recommended string) []Doctor {
	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.MatchesSpecialty(recommended) {
			out = append(out, d)
		}
	}
	return out
}

// NormalizeSlots lower-cases weekday keys so lookups by time.Weekday work
// regardless of how the directory was populated.
func NormalizeSlots(in WeeklySlots) WeeklySlots {
	out := make(WeeklySlots, len(in))
	for day, slots := range in {
		key := strings.ToLower(strings.TrimSpace(day))
		out[key] = append(out[key], slots...)
	}
	return out
}
