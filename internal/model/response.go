package model

// AnswerConfidence is the model's self-assessment of its answer.
type AnswerConfidence string

const (
	ConfidenceVeryConfident     AnswerConfidence = "very_confident"
	ConfidenceSomewhatConfident AnswerConfidence = "somewhat_confident"
	ConfidenceNotConfident      AnswerConfidence = "not_confident"
	ConfidenceNoSources         AnswerConfidence = "no_sources"
	ConfidenceOther             AnswerConfidence = "other"
)

// AnswerConfidenceValues lists the tiers from highest to lowest.
var AnswerConfidenceValues = []AnswerConfidence{
	ConfidenceVeryConfident,
	ConfidenceSomewhatConfident,
	ConfidenceNotConfident,
	ConfidenceNoSources,
	ConfidenceOther,
}

// RecordConsidered is a source the model cited.
type RecordConsidered struct {
	Type        string   `json:"type"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Breadcrumbs []string `json:"breadcrumbs,omitempty"`
}

// Link is a footnote-style reference.
type Link struct {
	Label       string   `json:"label,omitempty"`
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Breadcrumbs []string `json:"breadcrumbs,omitempty"`
}

// ResponseResult is never persisted; it drives one comment and one analytics entry.
// A nil AnswerConfidence means the model did not report one.
type ResponseResult struct {
	Text              string
	AnswerConfidence  *AnswerConfidence
	RecordsConsidered []RecordConsidered
	Links             []Link
}

func (r ResponseResult) IsVeryConfident() bool {
	return r.AnswerConfidence != nil && *r.AnswerConfidence == ConfidenceVeryConfident
}

// ConfidenceLabel is the tier name, or "unknown" when the model reported none.
func (r ResponseResult) ConfidenceLabel() string {
	if r.AnswerConfidence == nil || *r.AnswerConfidence == "" {
		return "unknown"
	}
	return string(*r.AnswerConfidence)
}
