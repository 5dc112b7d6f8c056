// Package workflow moves complaints through their status lifecycle.
//
// The transition relation is complete: any status may follow any other,
// including a status following itself. Authorities reopen wrongly resolved
// complaints and correct mistaken moves, so no edge is forbidden. The relation
// is still expressed as a table so a stricter policy only changes the table.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grievance-intake-go/internal/events"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

// ErrTransitionNotAllowed is returned when the table has no edge from the
// current status to the requested one.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// Relation maps each status to the statuses it may move to.
type Relation map[types.Status]map[types.Status]bool

// Complete returns the any-to-any relation over every status.
func Complete() Relation {
	r := make(Relation, len(types.Statuses()))
	for _, from := range types.Statuses() {
		r[from] = make(map[types.Status]bool, len(types.Statuses()))
		for _, to := range types.Statuses() {
			r[from][to] = true
		}
	}
	return r
}

func (r Relation) Allowed(from, to types.Status) bool {
	return r[from][to]
}

// Targets lists the statuses reachable from `from`, in enum order.
func (r Relation) Targets(from types.Status) []types.Status {
	var out []types.Status
	for _, to := range types.Statuses() {
		if r.Allowed(from, to) {
			out = append(out, to)
		}
	}
	return out
}

// Store is the persistence the workflow needs.
type Store interface {
	AppendStatus(ctx context.Context, id string, entry types.StatusEntry, guard storage.Guard) (*types.ComplaintRecord, error)
}

type Workflow struct {
	store    Store
	relation Relation
	events   events.Publisher
	log      *logger.Logger
	now      func() time.Time
}

func New(store Store, pub events.Publisher, log *logger.Logger) *Workflow {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Workflow{
		store:    store,
		relation: Complete(),
		events:   pub,
		log:      log.WithComponent("workflow"),
		now:      time.Now,
	}
}

// Transition sets the complaint's status and appends the matching history
// entry atomically. actorID comes from an already authorized caller. An
// unknown status fails before storage is touched.
func (w *Workflow) Transition(ctx context.Context, id string, newStatus string, actorID string, remarks string) (*types.ComplaintRecord, error) {
	to, err := types.ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, &types.ValidationError{Field: "actorId", Message: "an authorized actor is required"}
	}

	actor := actorID
	entry := types.StatusEntry{Status: to, Timestamp: w.now().UTC(), ActorID: &actor}
	if r := strings.TrimSpace(remarks); r != "" {
		entry.Remarks = &r
	}

	guard := func(from types.Status) error {
		if !w.relation.Allowed(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
		}
		return nil
	}
	rec, err := w.store.AppendStatus(ctx, id, entry, guard)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(to))
	w.log.WithField("complaint_id", id).WithField("status", string(to)).WithField("actor_id", actorID).Info("status updated")

	if err := w.events.Publish(ctx, events.StatusChanged(rec)); err != nil {
		w.log.WithError(err).WithField("complaint_id", id).Warn("status event not published")
	}
	return rec, nil
}
