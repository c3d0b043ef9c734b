package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"sitedocs/blobstore"
	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"

	"gorm.io/gorm"
)

type DeleteService interface {
	// DeleteFile removes one file: blob content, thumbnail and metadata.
	DeleteFile(ctx context.Context, entity models.EntityRef, actorID string, fileID uint) error
	// DeleteFolder removes a folder and everything under it, depth first:
	// files before subfolders, subfolders before the folder itself. A
	// failure mid-recursion leaves completed steps in place and returns
	// ErrPartialDeleteFailure; re-invoking the delete finishes the job.
	DeleteFolder(ctx context.Context, entity models.EntityRef, actorID string, folderID uint) error
}

type deleteService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	events    repositories.TreeEventsRepository
	blobs     blobstore.Store
	notifier  Notifier
	activity  activityRecorder
}

func NewDeleteService(
	repos *repositories.Container,
	blobs blobstore.Store,
	notifier Notifier,
) DeleteService {
	return &deleteService{
		txManager: repos.TxManager,
		folders:   repos.Folders,
		files:     repos.Files,
		events:    repos.TreeEvents,
		blobs:     blobs,
		notifier:  notifier,
		activity:  activityRecorder{repo: repos.ActivityLog},
	}
}

func (s *deleteService) DeleteFile(ctx context.Context, entity models.EntityRef, actorID string, fileID uint) error {
	file, err := s.files.GetByIDAndEntity(ctx, nil, fileID, entity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, "file not found", nil)
		}
		return newAppError(http.StatusInternalServerError, "failed to look up file", err)
	}

	if err := s.removeFile(ctx, file); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to delete file", err)
	}

	s.publishChanged(ctx, entity)
	s.notifier.AttachmentDeleted(ctx, entity, file.Name, actorID)
	s.activity.record(ctx, entity, models.ActivityFileDeleted, file.Name, actorID)
	return nil
}

func (s *deleteService) DeleteFolder(ctx context.Context, entity models.EntityRef, actorID string, folderID uint) error {
	if folderID == models.RootFolderID {
		return newAppError(http.StatusBadRequest, "the root folder cannot be deleted", nil)
	}
	folder, err := s.folders.GetByIDAndEntity(ctx, nil, folderID, entity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, "folder not found", nil)
		}
		return newAppError(http.StatusInternalServerError, "failed to look up folder", err)
	}

	if err := s.deleteSubtree(ctx, entity, folder, make(map[uint]bool)); err != nil {
		// Whatever was already deleted stays deleted. The subscription
		// still fires so viewers see the partial state.
		s.publishChanged(ctx, entity)
		if errors.Is(err, ErrTreeCorrupted) {
			return newAppError(http.StatusInternalServerError, "attachment tree is corrupted", err)
		}
		return newAppError(http.StatusInternalServerError, "folder delete did not finish", fmt.Errorf("%w: %v", ErrPartialDeleteFailure, err))
	}

	s.publishChanged(ctx, entity)
	s.activity.record(ctx, entity, models.ActivityFolderDeleted, folder.Name, actorID)
	return nil
}

// deleteSubtree removes one folder depth first. The visited set and the
// depth bound turn corrupt parent links into a loud failure instead of
// unbounded recursion.
func (s *deleteService) deleteSubtree(ctx context.Context, entity models.EntityRef, folder models.Folder, visited map[uint]bool) error {
	if visited[folder.ID] {
		return fmt.Errorf("%w: cycle through folder %d", ErrTreeCorrupted, folder.ID)
	}
	if folder.Depth > models.MaxFolderDepth {
		return fmt.Errorf("%w: folder %d at depth %d", ErrTreeCorrupted, folder.ID, folder.Depth)
	}
	visited[folder.ID] = true

	files, err := s.files.ListByParent(ctx, nil, entity, folder.ID)
	if err != nil {
		return fmt.Errorf("list files of folder %d: %w", folder.ID, err)
	}
	for _, file := range files {
		if err := s.removeFile(ctx, file); err != nil {
			return fmt.Errorf("delete file %d: %w", file.ID, err)
		}
	}

	subfolders, err := s.folders.ListByParent(ctx, nil, entity, folder.ID)
	if err != nil {
		return fmt.Errorf("list subfolders of folder %d: %w", folder.ID, err)
	}
	for _, sub := range subfolders {
		if err := s.deleteSubtree(ctx, entity, sub, visited); err != nil {
			return err
		}
	}

	if err := s.folders.DeleteByID(ctx, nil, folder.ID); err != nil {
		return fmt.Errorf("delete folder %d: %w", folder.ID, err)
	}
	return nil
}

// removeFile deletes blob content first, then the metadata row. The blob
// deletes are idempotent, so a retried delete after a metadata failure
// does not trip over already-removed content.
func (s *deleteService) removeFile(ctx context.Context, file models.File) error {
	if file.ThumbnailPath != "" {
		if err := s.blobs.Delete(ctx, file.ThumbnailPath); err != nil {
			logger.Warnf("delete file %d: remove thumbnail: %v", file.ID, err)
		}
	}
	if file.StoragePath != "" {
		if err := s.blobs.Delete(ctx, file.StoragePath); err != nil {
			return fmt.Errorf("remove blob %s: %w", file.StoragePath, err)
		}
	}

	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.DeleteByID(ctx, tx, file.ID); err != nil {
			return err
		}
		if file.ParentID != models.RootFolderID {
			return s.folders.AddSize(ctx, tx, file.ParentID, -file.Size)
		}
		return nil
	})
}

func (s *deleteService) publishChanged(ctx context.Context, entity models.EntityRef) {
	if err := s.events.PublishChanged(ctx, entity); err != nil {
		logger.Warnf("publish tree change for %s: %v", entity, err)
	}
}
