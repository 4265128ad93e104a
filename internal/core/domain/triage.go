package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyRoutine   Urgency = "routine"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyRoutine:
		return true
	default:
		return false
	}
}

const GeneralPractitioner = "General Practitioner"

// SymptomInput is what the user typed before asking for an analysis.
// Tags keep insertion order and are unique.
type SymptomInput struct {
	Tags      []string `json:"symptoms"`
	Narrative string   `json:"narrative,omitempty"`
}

// AddTag appends a trimmed tag. It reports false for blanks and duplicates.
func (in *SymptomInput) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range in.Tags {
		if existing == tag {
			return false
		}
	}
	in.Tags = append(in.Tags, tag)
	return true
}

func (in *SymptomInput) RemoveTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for i, existing := range in.Tags {
		if existing == tag {
			in.Tags = append(in.Tags[:i], in.Tags[i+1:]...)
			return true
		}
	}
	return false
}

func (in SymptomInput) Empty() bool {
	return len(in.Tags) == 0 && strings.TrimSpace(in.Narrative) == ""
}

func (in SymptomInput) Clone() SymptomInput {
	out := SymptomInput{Narrative: in.Narrative}
	if in.Tags != nil {
		out.Tags = append([]string{}, in.Tags...)
	}
	return out
}

// FollowUpAnswer pairs a clarifying question with the user's reply.
// Answers are positional so two identical questions never collide.
type FollowUpAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FollowUpResponses is an ordered list of answers. It decodes from either
// a list of {question, answer} pairs or a question-to-answer object, keeping
// the object's key order.
type FollowUpResponses []FollowUpAnswer

func (r *FollowUpResponses) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = nil
		return nil
	case data[0] == '[':
		var list []FollowUpAnswer
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	case data[0] != '{':
		return fmt.Errorf("follow-up responses: expected object or array")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := FollowUpResponses{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		question, ok := tok.(string)
		if !ok {
			return fmt.Errorf("follow-up responses: unexpected key %v", tok)
		}
		var answer string
		if err := dec.Decode(&answer); err != nil {
			return fmt.Errorf("follow-up responses: answer to %q: %w", question, err)
		}
		out = append(out, FollowUpAnswer{Question: question, Answer: answer})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// ClassificationRequest is the payload sent to the symptom classifier.
type ClassificationRequest struct {
	Symptoms          []string          `json:"symptoms"`
	Narrative         string            `json:"narrative,omitempty"`
	FollowUpResponses FollowUpResponses `json:"followUpResponses,omitempty"`
}

func (r ClassificationRequest) HasResponses() bool {
	return len(r.FollowUpResponses) > 0
}

// Verdict is the classifier's triage result. A new verdict always
// replaces the previous one; verdicts are never edited in place.
type Verdict struct {
	Urgency               Urgency  `json:"urgencyLevel"`
	PossibleConditions    []string `json:"possibleConditions"`
	SymptomCategories     []string `json:"symptomCategories"`
	FollowUpQuestions     []string `json:"followUpQuestions"`
	HomeRemedies          []string `json:"homeRemedies"`
	RecommendedSpecialist string   `json:"recommendedSpecialist"`
	Summary               string   `json:"summary"`
	Precautions           []string `json:"precautions"`
	WarningSigns          []string `json:"warningSignsToWatch"`
	NeedsClarification    bool     `json:"needsClarification,omitempty"`
	ClarificationMessage  string   `json:"clarificationMessage,omitempty"`
	Degraded              bool     `json:"degraded,omitempty"`
}

// Normalize fills empty lists and drops home remedies for anything that
// is not routine.
func (v Verdict) Normalize() Verdict {
	out := v
	out.PossibleConditions = nonNil(v.PossibleConditions)
	out.SymptomCategories = nonNil(v.SymptomCategories)
	out.FollowUpQuestions = compactStrings(v.FollowUpQuestions)
	out.HomeRemedies = nonNil(v.HomeRemedies)
	out.Precautions = nonNil(v.Precautions)
	out.WarningSigns = nonNil(v.WarningSigns)
	if out.Urgency != UrgencyRoutine {
		out.HomeRemedies = []string{}
	}
	if strings.TrimSpace(out.RecommendedSpecialist) == "" {
		out.RecommendedSpecialist = GeneralPractitioner
	}
	return out
}

func (v Verdict) HasFollowUps() bool {
	return len(v.FollowUpQuestions) > 0
}

// Final reports whether the verdict can be recorded as a completed
// assessment.
func (v Verdict) Final() bool {
	return !v.NeedsClarification
}

func (v Verdict) IsEmergency() bool {
	return v.Urgency == UrgencyEmergency
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
