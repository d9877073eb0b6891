package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/logger"
	"github.com/netobjects/netstore/model"
)

// ExecuteSave pushes a change set to the remote API. The batch is applied
// best-effort per object: a failing object is recorded in the result and
// the batch continues, so callers get permanent identifiers for every
// insert that did go through. An aggregate error is returned when any
// object failed.
func (s *Store) ExecuteSave(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error) {
	if req == nil {
		return nil, errors.Validation("save request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Validation(err.Error()).WithCause(err)
	}

	ctx, span := s.startSpan(ctx, "store.save",
		attribute.Int("inserts", len(req.Inserts)),
		attribute.Int("updates", len(req.Updates)),
		attribute.Int("deletes", len(req.Deletes)),
	)
	result, err := s.executeSave(ctx, req)
	endSpan(span, err)
	return result, err
}

func (s *Store) executeSave(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error) {
	api := s.Client()
	if api == nil {
		return nil, errors.Internal(nil).WithDetail("reason", "no API client configured")
	}

	result := &model.SaveResult{}

	for _, ins := range req.Inserts {
		if cancelled := s.abortRemaining(ctx, result, ins.ID); cancelled {
			continue
		}
		entity := s.entityFor(ins.ID.Entity)
		rec, err := api.Create(ctx, entity, ins.Snapshot)
		if err != nil {
			s.recordFailure(result, ins.ID, translateError("create", entity.Name, "", err))
			continue
		}
		result.Assignments = append(result.Assignments, model.IDAssignment{
			Temporary: ins.ID,
			Permanent: rec.ID,
		})
		s.cachePut(ctx, rec.ID, rec.Snapshot)
	}

	for _, upd := range req.Updates {
		if cancelled := s.abortRemaining(ctx, result, upd.ID); cancelled {
			continue
		}
		entity := s.entityFor(upd.ID.Entity)
		snap, err := api.Update(ctx, entity, upd.ID.ID, upd.Snapshot)
		if err != nil {
			// Cache stays at the last acknowledged state for this object.
			s.recordFailure(result, upd.ID, translateError("update", entity.Name, upd.ID.ID, err))
			continue
		}
		s.cachePut(ctx, upd.ID, snap)
	}

	for _, del := range req.Deletes {
		if cancelled := s.abortRemaining(ctx, result, del); cancelled {
			continue
		}
		entity := s.entityFor(del.Entity)
		if err := api.Delete(ctx, entity, del.ID); err != nil && !client.IsNotFound(err) {
			s.recordFailure(result, del, translateError("delete", entity.Name, del.ID, err))
			continue
		}
		// Deleting an already-deleted object is idempotent success.
		if err := s.cache.Delete(ctx, del); err != nil {
			s.log.Warn("cache delete failed", logger.Fields(
				logger.FieldObjectID, del.String(), logger.FieldError, err.Error()))
		}
	}

	if len(result.Failed) > 0 {
		first := result.Failed[0].Err
		return result, errors.New(saveErrorCode(first),
			fmt.Sprintf("save completed with %d failed object(s)", len(result.Failed))).
			WithDetail("failed", len(result.Failed)).
			WithCause(first)
	}

	s.log.Info("save applied", logger.Fields(
		"inserts", len(req.Inserts), "updates", len(req.Updates), "deletes", len(req.Deletes)))
	return result, nil
}

// abortRemaining marks the object failed with a cancellation error when
// the context is done, so a torn-down context stops issuing remote calls
// while already-acknowledged writes stay committed and cached.
func (s *Store) abortRemaining(ctx context.Context, result *model.SaveResult, id model.ObjectID) bool {
	if ctx.Err() == nil {
		return false
	}
	result.Failed = append(result.Failed, model.ObjectError{
		ID:  id,
		Err: errors.Cancelled("save", ctx.Err()),
	})
	return true
}

func (s *Store) recordFailure(result *model.SaveResult, id model.ObjectID, err error) {
	result.Failed = append(result.Failed, model.ObjectError{ID: id, Err: err})
	s.log.Warn("save object failed", logger.Fields(
		logger.FieldObjectID, id.String(), logger.FieldError, err.Error()))
}

func (s *Store) cachePut(ctx context.Context, id model.ObjectID, snap model.Snapshot) {
	if err := s.cache.Put(ctx, id, snap); err != nil {
		s.log.Warn("cache refresh failed", logger.Fields(
			logger.FieldObjectID, id.String(), logger.FieldError, err.Error()))
	}
}

// saveErrorCode picks the aggregate error code from the first per-object
// failure, defaulting to a transport classification.
func saveErrorCode(err error) errors.ErrorCode {
	if se, ok := errors.AsStoreError(err); ok {
		return se.Code
	}
	return errors.ErrCodeTransport
}
