package services

import (
	"context"

	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"
)

// activityRecorder writes entity activity entries fire-and-forget. A
// failed insert is logged and discarded; it never aborts the primary
// operation.
type activityRecorder struct {
	repo repositories.ActivityLogRepository
}

func (a activityRecorder) record(ctx context.Context, entity models.EntityRef, event string, detail string, actorID string) {
	if a.repo == nil {
		return
	}
	entry := models.ActivityLog{
		EntityType: entity.Type,
		EntityID:   entity.ID,
		Event:      event,
		Detail:     detail,
		ActorID:    actorID,
	}
	if err := a.repo.Create(ctx, nil, &entry); err != nil {
		logger.Warnf("activity log %s for %s: %v", event, entity, err)
	}
}
