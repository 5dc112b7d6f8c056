package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	mobilePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	areaCodePattern = regexp.MustCompile(`^\d{6}$`)
)

// ContactMetadata is what the submitter declares about themselves.
type ContactMetadata struct {
	Name     string `json:"contactName"`
	Mobile   string `json:"contactMobile"`
	AreaCode string `json:"areaCode"`
}

// Validate checks presence first, then format.
func (m ContactMetadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Mobile) == "" || strings.TrimSpace(m.AreaCode) == "" {
		return &ValidationError{Field: "metadata", Message: "provide full name, mobile number, and area code"}
	}
	if !mobilePattern.MatchString(m.Mobile) {
		return &ValidationError{Field: "contactMobile", Message: "mobile number must be a valid 10-digit number starting with 6-9"}
	}
	if !areaCodePattern.MatchString(m.AreaCode) {
		return &ValidationError{Field: "areaCode", Message: "area code must be a 6-digit number"}
	}
	return nil
}

// Submission is a raw complaint as it arrives at the ingestion pipeline.
type Submission struct {
	SubmitterID   string
	Metadata      ContactMetadata
	Language      Language
	Text          string
	Audio         []byte
	IsAudio       bool
	AttachmentRef string
}

// StatusEntry is one append-only audit row of a complaint's status history.
type StatusEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   *string   `json:"actorId"`
	Remarks   *string   `json:"remarks"`
}

// ComplaintRecord is the durable grievance.
type ComplaintRecord struct {
	ID             string          `json:"id"`
	SubmitterID    string          `json:"submitterId"`
	Contact        ContactMetadata `json:"contact"`
	SourceLanguage Language        `json:"sourceLanguage"`
	OriginalText   string          `json:"originalText"`
	NormalizedText string          `json:"normalizedText"`
	Category       Category        `json:"category"`
	Department     string          `json:"department"`
	AttachmentRef  *string         `json:"attachmentRef"`
	Status         Status          `json:"status"`
	StatusHistory  []StatusEntry   `json:"statusHistory"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewComplaintParams carries the fields a fresh record is built from.
type NewComplaintParams struct {
	SubmitterID    string
	Contact        ContactMetadata
	SourceLanguage Language
	OriginalText   string
	NormalizedText string
	Category       Category
	Department     string
	AttachmentRef  string
}

// NewComplaintRecord builds a record together with its initial Submitted entry.
// Out-of-enum categories are forced to Other and an empty normalized text falls
// back to the original.
func NewComplaintRecord(p NewComplaintParams, now time.Time) *ComplaintRecord {
	now = now.UTC()
	category := p.Category
	department := p.Department
	if !category.IsValid() {
		category = CategoryOther
	}
	if strings.TrimSpace(department) == "" {
		department = DefaultDepartment
	}
	normalized := p.NormalizedText
	if strings.TrimSpace(normalized) == "" {
		normalized = p.OriginalText
	}
	var attachment *string
	if p.AttachmentRef != "" {
		ref := p.AttachmentRef
		attachment = &ref
	}
	return &ComplaintRecord{
		ID:             uuid.New().String(),
		SubmitterID:    p.SubmitterID,
		Contact:        p.Contact,
		SourceLanguage: p.SourceLanguage,
		OriginalText:   p.OriginalText,
		NormalizedText: normalized,
		Category:       category,
		Department:     department,
		AttachmentRef:  attachment,
		Status:         StatusSubmitted,
		StatusHistory: []StatusEntry{
			{Status: StatusSubmitted, Timestamp: now},
		},
		CreatedAt: now,
	}
}

// LastEntry returns the most recent history entry.
func (r *ComplaintRecord) LastEntry() (StatusEntry, bool) {
	if len(r.StatusHistory) == 0 {
		return StatusEntry{}, false
	}
	return r.StatusHistory[len(r.StatusHistory)-1], true
}

// CheckInvariants verifies the record-level guarantees.
func (r *ComplaintRecord) CheckInvariants() error {
	if !r.Category.IsValid() {
		return fmt.Errorf("category %q outside enum", r.Category)
	}
	if len(r.StatusHistory) == 0 {
		return fmt.Errorf("empty status history")
	}
	for i := 1; i < len(r.StatusHistory); i++ {
		if r.StatusHistory[i].Timestamp.Before(r.StatusHistory[i-1].Timestamp) {
			return fmt.Errorf("status history out of order at entry %d", i)
		}
	}
	last, _ := r.LastEntry()
	if last.Status != r.Status {
		return fmt.Errorf("status %q does not match last history entry %q", r.Status, last.Status)
	}
	if r.OriginalText != "" && r.NormalizedText == "" {
		return fmt.Errorf("normalized text empty")
	}
	return nil
}
