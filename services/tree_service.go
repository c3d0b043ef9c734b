package services

import (
	"context"
	"errors"
	"net/http"

	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"

	"gorm.io/gorm"
)

type TreeService interface {
	// GetSnapshot reads both flat collections and validates the tree
	// invariants before returning.
	GetSnapshot(ctx context.Context, entity models.EntityRef) (TreeSnapshot, error)
	// ListChildren returns the direct children of a folder straight from
	// the store.
	ListChildren(ctx context.Context, entity models.EntityRef, folderID uint) ([]models.Folder, []models.File, error)
	// WatchTree establishes the live subscription: the returned channel
	// receives the current snapshot immediately and a fresh one after
	// every remote change. stop (or ctx cancellation) tears the
	// subscription down; without it the subscription leaks.
	WatchTree(ctx context.Context, entity models.EntityRef) (<-chan TreeSnapshot, func(), error)
}

type treeService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	events  repositories.TreeEventsRepository
}

func NewTreeService(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	events repositories.TreeEventsRepository,
) TreeService {
	return &treeService{folders: folders, files: files, events: events}
}

func (s *treeService) GetSnapshot(ctx context.Context, entity models.EntityRef) (TreeSnapshot, error) {
	folders, err := s.folders.ListByEntity(ctx, nil, entity)
	if err != nil {
		return TreeSnapshot{}, newAppError(http.StatusInternalServerError, "failed to load folders", err)
	}
	files, err := s.files.ListByEntity(ctx, nil, entity)
	if err != nil {
		return TreeSnapshot{}, newAppError(http.StatusInternalServerError, "failed to load files", err)
	}

	snapshot := TreeSnapshot{Entity: entity, Folders: folders, Files: files}
	if err := snapshot.Validate(); err != nil {
		return TreeSnapshot{}, newAppError(http.StatusInternalServerError, "attachment tree is corrupted", err)
	}
	return snapshot, nil
}

func (s *treeService) ListChildren(ctx context.Context, entity models.EntityRef, folderID uint) ([]models.Folder, []models.File, error) {
	if folderID != models.RootFolderID {
		if _, err := s.folders.GetByIDAndEntity(ctx, nil, folderID, entity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, newAppError(http.StatusNotFound, "folder not found", nil)
			}
			return nil, nil, newAppError(http.StatusInternalServerError, "failed to look up folder", err)
		}
	}

	folders, err := s.folders.ListByParent(ctx, nil, entity, folderID)
	if err != nil {
		return nil, nil, newAppError(http.StatusInternalServerError, "failed to list folders", err)
	}
	files, err := s.files.ListByParent(ctx, nil, entity, folderID)
	if err != nil {
		return nil, nil, newAppError(http.StatusInternalServerError, "failed to list files", err)
	}
	return folders, files, nil
}

func (s *treeService) WatchTree(ctx context.Context, entity models.EntityRef) (<-chan TreeSnapshot, func(), error) {
	events, stopEvents, err := s.events.SubscribeChanged(ctx, entity)
	if err != nil {
		return nil, nil, newAppError(http.StatusInternalServerError, "failed to subscribe to tree changes", err)
	}

	out := make(chan TreeSnapshot, 1)
	push := func() {
		snapshot, err := s.GetSnapshot(ctx, entity)
		if err != nil {
			logger.Warnf("tree watch %s: %v", entity, err)
			return
		}
		// Keep only the latest snapshot when the consumer is slow.
		select {
		case out <- snapshot:
		default:
			select {
			case <-out:
			default:
			}
			out <- snapshot
		}
	}

	go func() {
		defer close(out)
		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				push()
			}
		}
	}()

	return out, stopEvents, nil
}
