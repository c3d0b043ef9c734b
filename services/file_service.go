package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"

	"gorm.io/gorm"
)

type FileService interface {
	GetFile(ctx context.Context, entity models.EntityRef, fileID uint) (models.File, error)
	// RenameFile changes a file's display name. The blob keeps its
	// original storage path; only the metadata name changes.
	RenameFile(ctx context.Context, entity models.EntityRef, actorID string, fileID uint, name string) (models.File, error)
}

type fileService struct {
	files    repositories.FileRepository
	events   repositories.TreeEventsRepository
	activity activityRecorder
}

func NewFileService(
	files repositories.FileRepository,
	events repositories.TreeEventsRepository,
	activityLog repositories.ActivityLogRepository,
) FileService {
	return &fileService{
		files:    files,
		events:   events,
		activity: activityRecorder{repo: activityLog},
	}
}

func (s *fileService) GetFile(ctx context.Context, entity models.EntityRef, fileID uint) (models.File, error) {
	file, err := s.files.GetByIDAndEntity(ctx, nil, fileID, entity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newAppError(http.StatusNotFound, "file not found", nil)
		}
		return models.File{}, newAppError(http.StatusInternalServerError, "failed to look up file", err)
	}
	return file, nil
}

func (s *fileService) RenameFile(ctx context.Context, entity models.EntityRef, actorID string, fileID uint, name string) (models.File, error) {
	name = strings.TrimSpace(name)
	if err := validateDisplayName(name); err != nil {
		return models.File{}, newAppError(http.StatusBadRequest, "invalid file name", err)
	}

	file, err := s.GetFile(ctx, entity, fileID)
	if err != nil {
		return models.File{}, err
	}

	oldName := file.Name
	updates := map[string]interface{}{"name": name, "type": fileType(name)}
	if err := s.files.UpdateByIDAndEntity(ctx, nil, file.ID, entity, updates); err != nil {
		return models.File{}, newAppError(http.StatusInternalServerError, "failed to rename file", err)
	}
	file.Name = name
	file.Type = fileType(name)

	if err := s.events.PublishChanged(ctx, entity); err != nil {
		logger.Warnf("publish tree change for %s: %v", entity, err)
	}
	s.activity.record(ctx, entity, models.ActivityFileRenamed, oldName+" -> "+name, actorID)
	return file, nil
}
