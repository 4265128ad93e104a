package usecase

import "github.com/kirillkom/symptom-triage/internal/core/domain"

// FallbackVerdict stands in for a classifier result that never arrived or
// could not be read. It keeps the user moving by asking for clarification.
func FallbackVerdict() domain.Verdict {
	return domain.Verdict{
		Urgency:            domain.UrgencyRoutine,
		PossibleConditions: []string{"Unable to analyze - please consult a healthcare professional"},
		SymptomCategories:  []string{"general"},
		FollowUpQuestions: []string{
			"How long have you been experiencing these symptoms?",
			"On a scale from 1 to 10, how severe are your symptoms?",
			"Have your symptoms gotten better, worse, or stayed the same since they started?",
		},
		HomeRemedies:          []string{"Rest", "Stay hydrated", "Monitor symptoms"},
		RecommendedSpecialist: domain.GeneralPractitioner,
		Summary:               "I couldn't fully analyze your symptoms. Please consult with a healthcare professional for proper evaluation.",
		Precautions:           []string{"Seek medical attention if symptoms worsen"},
		WarningSigns:          []string{"Worsening of symptoms", "New symptoms developing"},
		NeedsClarification:    true,
		ClarificationMessage:  "Please answer a few questions so we can better understand your symptoms.",
		Degraded:              true,
	}
}
