package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

const confirmationSubject = "Your Appointment is Confirmed!"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f0f9f4;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #0d9488;">Appointment Confirmed</h1>
    <p>Hi {{if .UserName}}{{.UserName}}{{else}}there{{end}},</p>
    <p>Your appointment has been successfully scheduled. Here are the details:</p>
    <table style="border-left: 4px solid #0d9488; padding: 12px;">
      <tr><td>Doctor:</td><td><strong>{{.DoctorName}}</strong></td></tr>
      <tr><td>Specialty:</td><td><strong>{{.Specialty}}</strong></td></tr>
      <tr><td>Date:</td><td><strong>{{.Date}}</strong></td></tr>
      <tr><td>Time:</td><td><strong>{{.Time}}</strong></td></tr>
      <tr><td>Reason:</td><td><strong>{{.Reason}}</strong></td></tr>
    </table>
    <p><strong>Reminder:</strong> Please arrive 10-15 minutes before your scheduled time.</p>
    <p>If you need to reschedule or cancel, please do so at least 24 hours in advance.</p>
    <p style="color: #94a3b8; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
  </div>
</body>
</html>
`))

// ConfirmationService turns booking events into confirmation emails.
type ConfirmationService struct {
	sender ports.EmailSender
	from   string
}

func NewConfirmationService(sender ports.EmailSender, from string) *ConfirmationService {
	return &ConfirmationService{sender: sender, from: from}
}

func (s *ConfirmationService) Dispatch(ctx context.Context, event domain.AppointmentBooked) error {
	recipient := strings.TrimSpace(event.UserEmail)
	if recipient == "" {
		slog.Warn("confirmation_email_skipped",
			"appointment_id", event.AppointmentID,
			"reason", "missing recipient",
		)
		return nil
	}

	body, err := RenderConfirmation(event)
	if err != nil {
		return err
	}
	email := domain.Email{
		From:    s.from,
		To:      []string{recipient},
		Subject: confirmationSubject,
		HTML:    body,
	}
	if err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", event.AppointmentID, err)
	}
	slog.Info("confirmation_email_sent", "appointment_id", event.AppointmentID)
	return nil
}

func RenderConfirmation(event domain.AppointmentBooked) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, event); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
