package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workhub/pkg/logger"
)

// Recorder is the single entry point services use to write history.
//
// IMPORTANT:
//   - Call it inside the same transaction as the mutation (utils.WithTx); the SQL store
//     picks the transaction up from ctx, so a failed record rolls the mutation back.
//   - Nothing is written when any step fails.
type Recorder struct {
	registry *Registry
	actors   ActorProvider
	metrics  *Metrics
	clock    func() time.Time
}

// NewRecorder builds a recorder. metrics may be nil.
func NewRecorder(registry *Registry, actors ActorProvider, metrics *Metrics) *Recorder {
	return &Recorder{
		registry: registry,
		actors:   actors,
		metrics:  metrics,
		clock:    time.Now,
	}
}

// Record appends one record for a mutation of targetID.
// For CREATE the caller becomes created_by; for any other action created_by is copied
// from the target's first CREATE record, and its absence is ErrDataIntegrity.
func (r *Recorder) Record(ctx context.Context, t Type, targetID int64, action Action, before string) error {
	if err := r.record(ctx, t, targetID, action, before); err != nil {
		r.metrics.observeFailure(t, err)
		return err
	}
	r.metrics.observeRecorded(t, action)
	return nil
}

// RecordSnapshot JSON-encodes snapshot and records it as the before-state.
// A nil snapshot records an empty before-state.
func (r *Recorder) RecordSnapshot(ctx context.Context, t Type, targetID int64, action Action, snapshot any) error {
	before := ""
	if snapshot != nil {
		b, err := json.Marshal(snapshot)
		if err != nil {
			err = fmt.Errorf("%w: encode %s snapshot: %w", ErrInvalidArgument, t, err)
			r.metrics.observeFailure(t, err)
			return err
		}
		before = string(b)
	}
	return r.Record(ctx, t, targetID, action, before)
}

// ResolveOriginalCreator returns the actor of the first CREATE record of targetID.
func (r *Recorder) ResolveOriginalCreator(ctx context.Context, t Type, targetID int64) (int64, bool, error) {
	h, err := r.registry.Handler(t)
	if err != nil {
		return 0, false, err
	}
	return h.FindOriginalCreator(ctx, targetID)
}

func (r *Recorder) record(ctx context.Context, t Type, targetID int64, action Action, before string) error {
	log := logger.From(ctx)

	h, err := r.registry.Handler(t)
	if err != nil {
		log.Error("history handler missing", "type", t, "err", err)
		return err
	}
	if !action.Valid() {
		return fmt.Errorf("%w: action %q", ErrInvalidArgument, action)
	}

	actor, err := r.actors.CurrentActor(ctx)
	if err != nil {
		return err
	}

	createdBy := actor.UserID
	if action != ActionCreate {
		creator, ok, err := h.FindOriginalCreator(ctx, targetID)
		if err != nil {
			return err
		}
		if !ok {
			err := fmt.Errorf("%w: %s %d has no CREATE record", ErrDataIntegrity, t, targetID)
			log.Error("history creator missing", "type", t, "target_id", targetID, "action", action)
			return err
		}
		createdBy = creator
	}

	rec, err := h.Build(targetID, action, before, createdBy, Meta{
		UpdatedBy:   actor.UserID,
		ClientIP:    actor.ClientIP,
		ClientAgent: actor.ClientAgent,
		At:          r.clock(),
	})
	if err != nil {
		return err
	}

	rec, err = h.Persist(ctx, rec)
	if err != nil {
		return err
	}

	log.Debug("history recorded",
		"type", rec.Type,
		"target_id", rec.TargetID,
		"action", rec.Action,
		"change_log_id", rec.ChangeLogID,
	)
	return nil
}
