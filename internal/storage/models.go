package storage

import (
	"time"

	"grievance-intake-go/internal/types"
)

// ComplaintModel is the complaints table.
type ComplaintModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	SubmitterID    string    `gorm:"column:submitter_id;size:64;not null;index"`
	ContactName    string    `gorm:"column:contact_name;not null"`
	ContactMobile  string    `gorm:"column:contact_mobile;size:10;not null"`
	AreaCode       string    `gorm:"column:area_code;size:6;not null;index"`
	SourceLanguage string    `gorm:"column:source_language;size:2;not null"`
	OriginalText   string    `gorm:"column:original_text;type:text;not null"`
	NormalizedText string    `gorm:"column:normalized_text;type:text;not null"`
	Category       string    `gorm:"column:category;size:64;not null;index"`
	Department     string    `gorm:"column:department;not null;index"`
	AttachmentRef  *string   `gorm:"column:attachment_ref"`
	Status         string    `gorm:"column:status;size:32;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`

	History []StatusHistoryModel `gorm:"foreignKey:ComplaintID;references:ID"`
}

func (ComplaintModel) TableName() string {
	return "complaints"
}

// StatusHistoryModel is one append-only row of complaint_status_history.
// Seq orders entries within a complaint starting at 1.
type StatusHistoryModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ComplaintID string    `gorm:"column:complaint_id;size:36;not null;uniqueIndex:idx_history_complaint_seq"`
	Seq         int       `gorm:"column:seq;not null;uniqueIndex:idx_history_complaint_seq"`
	Status      string    `gorm:"column:status;size:32;not null"`
	ChangedAt   time.Time `gorm:"column:changed_at;not null"`
	ActorID     *string   `gorm:"column:actor_id;size:64"`
	Remarks     *string   `gorm:"column:remarks;type:text"`
}

func (StatusHistoryModel) TableName() string {
	return "complaint_status_history"
}

func toModel(r *types.ComplaintRecord) ComplaintModel {
	return ComplaintModel{
		ID:             r.ID,
		SubmitterID:    r.SubmitterID,
		ContactName:    r.Contact.Name,
		ContactMobile:  r.Contact.Mobile,
		AreaCode:       r.Contact.AreaCode,
		SourceLanguage: string(r.SourceLanguage),
		OriginalText:   r.OriginalText,
		NormalizedText: r.NormalizedText,
		Category:       string(r.Category),
		Department:     r.Department,
		AttachmentRef:  r.AttachmentRef,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.CreatedAt,
	}
}

func historyModel(complaintID string, seq int, e types.StatusEntry) StatusHistoryModel {
	return StatusHistoryModel{
		ComplaintID: complaintID,
		Seq:         seq,
		Status:      string(e.Status),
		ChangedAt:   e.Timestamp.UTC(),
		ActorID:     e.ActorID,
		Remarks:     e.Remarks,
	}
}

func (m *ComplaintModel) toRecord() *types.ComplaintRecord {
	rec := &types.ComplaintRecord{
		ID:          m.ID,
		SubmitterID: m.SubmitterID,
		Contact: types.ContactMetadata{
			Name:     m.ContactName,
			Mobile:   m.ContactMobile,
			AreaCode: m.AreaCode,
		},
		SourceLanguage: types.Language(m.SourceLanguage),
		OriginalText:   m.OriginalText,
		NormalizedText: m.NormalizedText,
		Category:       types.Category(m.Category),
		Department:     m.Department,
		AttachmentRef:  m.AttachmentRef,
		Status:         types.Status(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
	}
	rec.StatusHistory = make([]types.StatusEntry, 0, len(m.History))
	for _, h := range m.History {
		rec.StatusHistory = append(rec.StatusHistory, types.StatusEntry{
			Status:    types.Status(h.Status),
			Timestamp: h.ChangedAt.UTC(),
			ActorID:   h.ActorID,
			Remarks:   h.Remarks,
		})
	}
	return rec
}
