package gateway

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

const systemPrompt = `You are an AI health assistant (not a doctor). Your role is to help users understand their symptoms and provide guidance on next steps. You must:

1. NEVER provide medical diagnoses - only suggest possible conditions that warrant professional evaluation
2. Always recommend consulting a healthcare professional for proper diagnosis
3. Be empathetic and clear in your communication
4. Classify urgency appropriately:
   - EMERGENCY: Life-threatening symptoms (chest pain, difficulty breathing, stroke symptoms, severe bleeding, loss of consciousness)
   - URGENT: Symptoms needing same-day medical attention (high fever, severe pain, worsening symptoms)
   - ROUTINE: Common symptoms manageable with home care or scheduled appointment
5. If the description is too vague to assess, set needsClarification to true, explain why in clarificationMessage and ask follow-up questions. Once follow-up answers are supplied, give a final assessment and do not ask again.

Respond with a JSON object (no markdown) containing:
{
  "urgencyLevel": "emergency" | "urgent" | "routine",
  "possibleConditions": ["condition1", "condition2", ...],
  "symptomCategories": ["respiratory" | "gastrointestinal" | "cardiac" | "neurological" | "musculoskeletal" | "dermatological" | "general"],
  "followUpQuestions": ["question1", "question2", ...] (max 3 questions if symptoms are vague),
  "homeRemedies": ["remedy1", "remedy2", ...] (only for routine cases),
  "recommendedSpecialist": "General Practitioner" | "Pulmonologist" | "Cardiologist" | "Gastroenterologist" | "Neurologist" | "Emergency Medicine" | "Dermatologist" | "Orthopedist",
  "summary": "Brief empathetic summary of the analysis",
  "precautions": ["precaution1", "precaution2", ...],
  "warningSignsToWatch": ["sign1", "sign2", ...],
  "needsClarification": true | false,
  "clarificationMessage": "Why more information is needed"
}`

const maxNarrative = 4000

func buildUserMessage(req domain.ClassificationRequest) string {
	var b strings.Builder

	symptoms := strings.Join(req.Symptoms, ", ")
	narrative := strings.TrimSpace(req.Narrative)
	narrative = truncateUTF8(narrative, maxNarrative)

	if req.HasResponses() {
		fmt.Fprintf(&b, "Initial symptoms: %s\n", symptoms)
		if narrative != "" {
			fmt.Fprintf(&b, "Description: %s\n", narrative)
		}
		b.WriteString("\nAdditional information from follow-up questions:\n")
		for i, resp := range req.FollowUpResponses {
			fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, resp.Question, resp.Answer)
		}
		b.WriteString("\nPlease provide your analysis based on all this information.")
		return b.String()
	}

	if symptoms != "" {
		fmt.Fprintf(&b, "The user reports the following symptoms: %s\n", symptoms)
	}
	if narrative != "" {
		fmt.Fprintf(&b, "In their own words: %s\n", narrative)
	}
	b.WriteString("\nAnalyze these symptoms and provide your assessment. If the symptoms are vague or need clarification, include follow-up questions.")
	return b.String()
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
