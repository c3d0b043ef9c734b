package services

import (
	"context"
	"time"

	"sitedocs/blobstore"
	"sitedocs/config"
	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"
)

// CleanupService reclaims upload tasks that expired without completing:
// their partial blobs, progress entries and task rows.
type CleanupService interface {
	CleanExpiredUploadTasks(ctx context.Context) (int, error)
}

var defaultCleanupService CleanupService

func SetCleanupService(svc CleanupService) {
	defaultCleanupService = svc
}

// StartCleanupWorkers starts the background sweep loop. Call once at
// startup after the container is built.
func StartCleanupWorkers() {
	if defaultCleanupService == nil {
		return
	}
	go uploadTaskCleanupLoop()
}

func uploadTaskCleanupLoop() {
	interval := time.Duration(config.AppConfig.Cleanup.Interval) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		n, err := defaultCleanupService.CleanExpiredUploadTasks(context.Background())
		if err != nil {
			logger.Warnf("cleanup: sweep expired upload tasks: %v", err)
			continue
		}
		if n > 0 {
			logger.Infof("cleanup: removed %d expired upload tasks", n)
		}
	}
}

type cleanupService struct {
	tasks    repositories.UploadTaskRepository
	files    repositories.FileRepository
	progress repositories.UploadProgressRepository
	blobs    blobstore.Store
}

func NewCleanupService(
	tasks repositories.UploadTaskRepository,
	files repositories.FileRepository,
	progress repositories.UploadProgressRepository,
	blobs blobstore.Store,
) CleanupService {
	return &cleanupService{tasks: tasks, files: files, progress: progress, blobs: blobs}
}

func (s *cleanupService) CleanExpiredUploadTasks(ctx context.Context) (int, error) {
	tasks, err := s.tasks.ListExpiredAndUncompleted(ctx, nil, time.Now())
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, task := range tasks {
		// Tasks that never completed may have left a partial blob behind.
		// Storage paths are deterministic, so a later retry of the same
		// file may have committed a file record at this very path; its
		// blob must survive the sweep.
		if task.Status != models.UploadStatusCompleted && task.StoragePath != "" {
			referenced, err := s.files.CountByStoragePath(ctx, nil, task.StoragePath)
			if err != nil {
				logger.Warnf("cleanup: check references for %s: %v", task.UploadID, err)
				continue
			}
			if referenced == 0 {
				if err := s.blobs.Delete(ctx, task.StoragePath); err != nil {
					logger.Warnf("cleanup: remove partial blob for %s: %v", task.UploadID, err)
					continue
				}
			}
		}
		if err := s.progress.Clear(ctx, task.UploadID); err != nil {
			logger.Debugf("cleanup: clear progress for %s: %v", task.UploadID, err)
		}
		if err := s.tasks.DeleteByID(ctx, nil, task.ID); err != nil {
			logger.Warnf("cleanup: delete task %s: %v", task.UploadID, err)
			continue
		}
		cleaned++
	}
	return cleaned, nil
}
