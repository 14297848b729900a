package models

// Submission is a pending proposal for a new mosque or an edit to an
// existing one, awaiting review.
type Submission struct {
	ID              string           `json:"id,omitempty"`
	Type            SubmissionType   `json:"type"`
	Data            map[string]any   `json:"data"`
	MosqueID        string           `json:"mosque_id,omitempty"`
	Image           string           `json:"image,omitempty"` // stored filename
	Status          SubmissionStatus `json:"status"`
	SubmittedBy     string           `json:"submitted_by,omitempty"`
	ReviewedBy      string           `json:"reviewed_by,omitempty"`
	ReviewedAt      string           `json:"reviewed_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Created         string           `json:"created,omitempty"`
	Updated         string           `json:"updated,omitempty"`
}
