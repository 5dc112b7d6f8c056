// Package storage persists complaints and their status history with gorm.
// Every write that touches both tables runs in one transaction.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/types"
)

// Field names a column complaints can be grouped or filtered by.
type Field string

const (
	FieldStatus     Field = "status"
	FieldCategory   Field = "category"
	FieldDepartment Field = "department"
	FieldAreaCode   Field = "area_code"
)

func (f Field) valid() bool {
	switch f {
	case FieldStatus, FieldCategory, FieldDepartment, FieldAreaCode:
		return true
	}
	return false
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status     types.Status
	Category   types.Category
	AreaCode   string
	Department string
	Limit      int
	Offset     int
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log.WithComponent("storage")}
}

// Create writes the record and its first history entry atomically.
func (s *Store) Create(ctx context.Context, rec *types.ComplaintRecord) error {
	if len(rec.StatusHistory) == 0 {
		return &PersistenceError{Op: "create", Err: fmt.Errorf("complaint %s has no initial status entry", rec.ID)}
	}
	row := toModel(rec)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		history := make([]StatusHistoryModel, 0, len(rec.StatusHistory))
		for i, e := range rec.StatusHistory {
			history = append(history, historyModel(rec.ID, i+1, e))
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		s.log.WithError(err).WithField("complaint_id", rec.ID).Error("create complaint failed")
		return &PersistenceError{Op: "create", Err: err}
	}
	return nil
}

// Guard inspects the current status under the row lock and may veto the append.
type Guard func(current types.Status) error

// guardError carries a Guard veto out of the transaction untouched.
type guardError struct{ err error }

func (e guardError) Error() string { return e.err.Error() }

// AppendStatus locks the complaint row, appends the entry and updates the
// current status in one transaction. The entry timestamp is clamped so the
// history never goes backwards. Returns the updated record.
func (s *Store) AppendStatus(ctx context.Context, id string, entry types.StatusEntry, guard Guard) (*types.ComplaintRecord, error) {
	var row ComplaintModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if guard != nil {
			if err := guard(types.Status(row.Status)); err != nil {
				return guardError{err: err}
			}
		}

		var last StatusHistoryModel
		if err := tx.Where("complaint_id = ?", id).Order("seq DESC").First(&last).Error; err != nil {
			return fmt.Errorf("load last status entry: %w", err)
		}
		if entry.Timestamp.Before(last.ChangedAt) {
			entry.Timestamp = last.ChangedAt
		}

		h := historyModel(id, last.Seq+1, entry)
		if err := tx.Create(&h).Error; err != nil {
			return err
		}
		return tx.Model(&ComplaintModel{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     string(entry.Status),
			"updated_at": time.Now().UTC(),
		}).Error
	})
	var veto guardError
	if errors.As(err, &veto) {
		return nil, veto.err
	}
	if err != nil {
		return nil, wrap("append status", id, err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (*types.ComplaintRecord, error) {
	var row ComplaintModel
	if err := s.withHistory(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, wrap("get", id, err)
	}
	return row.toRecord(), nil
}

// ListBySubmitter returns the submitter's complaints, newest first.
func (s *Store) ListBySubmitter(ctx context.Context, submitterID string) ([]*types.ComplaintRecord, error) {
	var rows []ComplaintModel
	if err := s.withHistory(ctx).
		Where("submitter_id = ?", submitterID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, &PersistenceError{Op: "list by submitter", Err: err}
	}
	return toRecords(rows), nil
}

// List returns complaints matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*types.ComplaintRecord, error) {
	q := s.withHistory(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Category != "" {
		q = q.Where("category = ?", string(f.Category))
	}
	if f.AreaCode != "" {
		q = q.Where("area_code = ?", f.AreaCode)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var rows []ComplaintModel
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return toRecords(rows), nil
}

// CountBy groups all complaints by one column.
func (s *Store) CountBy(ctx context.Context, field Field) (map[string]int64, error) {
	if !field.valid() {
		return nil, fmt.Errorf("storage: cannot group by %q", field)
	}
	var rows []struct {
		Grp   string
		Total int64
	}
	col := string(field)
	if err := s.db.WithContext(ctx).Model(&ComplaintModel{}).
		Select(col + " AS grp, COUNT(*) AS total").
		Group(col).
		Scan(&rows).Error; err != nil {
		return nil, &PersistenceError{Op: "count by " + col, Err: err}
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Grp] = r.Total
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&ComplaintModel{}).Count(&n).Error; err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *Store) withHistory(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("History", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func toRecords(rows []ComplaintModel) []*types.ComplaintRecord {
	out := make([]*types.ComplaintRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out
}
