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

type FolderService interface {
	CreateFolder(ctx context.Context, entity models.EntityRef, actorID string, name string, parentID uint) (models.Folder, error)
	RenameFolder(ctx context.Context, entity models.EntityRef, actorID string, folderID uint, name string) (models.Folder, error)
}

type folderService struct {
	folders  repositories.FolderRepository
	events   repositories.TreeEventsRepository
	activity activityRecorder
}

func NewFolderService(
	folders repositories.FolderRepository,
	events repositories.TreeEventsRepository,
	activityLog repositories.ActivityLogRepository,
) FolderService {
	return &folderService{
		folders:  folders,
		events:   events,
		activity: activityRecorder{repo: activityLog},
	}
}

func (s *folderService) CreateFolder(ctx context.Context, entity models.EntityRef, actorID string, name string, parentID uint) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validateDisplayName(name); err != nil {
		return models.Folder{}, newAppError(http.StatusBadRequest, "invalid folder name", err)
	}

	depth := 1
	if parentID != models.RootFolderID {
		parent, err := s.folders.GetByIDAndEntity(ctx, nil, parentID, entity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Folder{}, newAppError(http.StatusNotFound, "parent folder not found", nil)
			}
			return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to look up parent folder", err)
		}
		depth = parent.Depth + 1
	}

	// Depth is enforced locally; past the bound no store call is made.
	if !CanCreateFolder(depth - 1) {
		return models.Folder{}, newAppError(http.StatusBadRequest, "folder depth limit reached", ErrDepthLimitExceeded)
	}

	count, err := s.folders.CountByParentAndName(ctx, nil, entity, parentID, name, 0)
	if err != nil {
		return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.Folder{}, newAppError(http.StatusBadRequest, "a folder with this name already exists", nil)
	}

	folder := models.Folder{
		Name:       name,
		ParentID:   parentID,
		Depth:      depth,
		EntityType: entity.Type,
		EntityID:   entity.ID,
	}
	if err := s.folders.Create(ctx, nil, &folder); err != nil {
		return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to create folder", err)
	}

	s.publishChanged(ctx, entity)
	s.activity.record(ctx, entity, models.ActivityFolderCreated, name, actorID)
	return folder, nil
}

func (s *folderService) RenameFolder(ctx context.Context, entity models.EntityRef, actorID string, folderID uint, name string) (models.Folder, error) {
	if folderID == models.RootFolderID {
		return models.Folder{}, newAppError(http.StatusBadRequest, "the root folder cannot be renamed", nil)
	}
	name = strings.TrimSpace(name)
	if err := validateDisplayName(name); err != nil {
		return models.Folder{}, newAppError(http.StatusBadRequest, "invalid folder name", err)
	}

	folder, err := s.folders.GetByIDAndEntity(ctx, nil, folderID, entity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Folder{}, newAppError(http.StatusNotFound, "folder not found", nil)
		}
		return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to look up folder", err)
	}

	count, err := s.folders.CountByParentAndName(ctx, nil, entity, folder.ParentID, name, folder.ID)
	if err != nil {
		return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.Folder{}, newAppError(http.StatusBadRequest, "a folder with this name already exists", nil)
	}

	oldName := folder.Name
	if err := s.folders.UpdateByID(ctx, nil, folder.ID, map[string]interface{}{"name": name}); err != nil {
		return models.Folder{}, newAppError(http.StatusInternalServerError, "failed to rename folder", err)
	}
	folder.Name = name

	s.publishChanged(ctx, entity)
	s.activity.record(ctx, entity, models.ActivityFolderRenamed, oldName+" -> "+name, actorID)
	return folder, nil
}

func (s *folderService) publishChanged(ctx context.Context, entity models.EntityRef) {
	if err := s.events.PublishChanged(ctx, entity); err != nil {
		logger.Warnf("publish tree change for %s: %v", entity, err)
	}
}
