package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sitedocs/blobstore"
	"sitedocs/config"
	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IncomingFile is one file of an upload batch as received from the
// transport layer, fully buffered.
type IncomingFile struct {
	Name string
	Size int64
	Data []byte
}

// UploadOutcome reports what happened to one file of a batch.
type UploadOutcome struct {
	UploadID string       `json:"upload_id"`
	FileName string       `json:"file_name"`
	Status   string       `json:"status"`
	File     *models.File `json:"file,omitempty"`
}

type UploadService interface {
	// FilterOversized drops files above the configured size cap. Dropped
	// files are skipped silently; a file exactly at the cap is kept.
	FilterOversized(files []IncomingFile) []IncomingFile
	// UploadBatch transfers the files sequentially into folderID. A
	// canceled file is skipped and its siblings continue; an
	// irrecoverable transfer failure aborts the remainder of the batch.
	// Outcomes for every attempted file are returned either way.
	UploadBatch(ctx context.Context, entity models.EntityRef, identity Identity, folderID uint, files []IncomingFile) ([]UploadOutcome, error)
	// Cancel aborts an in-flight transfer by its upload id.
	Cancel(ctx context.Context, uploadID string) error
	// Progress reports the transfer percent and task status for an
	// upload id.
	Progress(ctx context.Context, uploadID string) (float64, string, error)
}

// cancelRegistry maps in-flight upload ids to their cancel functions.
// Transfers run in-process, so the registry is purely in-memory.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

func (r *cancelRegistry) register(uploadID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[uploadID] = cancel
}

func (r *cancelRegistry) remove(uploadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, uploadID)
}

func (r *cancelRegistry) cancel(uploadID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[uploadID]
	if ok {
		cancel()
		delete(r.cancels, uploadID)
	}
	return ok
}

type uploadService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	tasks     repositories.UploadTaskRepository
	progress  repositories.UploadProgressRepository
	events    repositories.TreeEventsRepository
	blobs     blobstore.Store
	notifier  Notifier
	activity  activityRecorder
	cancels   *cancelRegistry
}

func NewUploadService(
	repos *repositories.Container,
	blobs blobstore.Store,
	notifier Notifier,
) UploadService {
	return &uploadService{
		txManager: repos.TxManager,
		folders:   repos.Folders,
		files:     repos.Files,
		tasks:     repos.UploadTasks,
		progress:  repos.UploadProgress,
		events:    repos.TreeEvents,
		blobs:     blobs,
		notifier:  notifier,
		activity:  activityRecorder{repo: repos.ActivityLog},
		cancels:   newCancelRegistry(),
	}
}

func (s *uploadService) FilterOversized(files []IncomingFile) []IncomingFile {
	maxSize := config.AppConfig.Upload.MaxFileSize
	kept := make([]IncomingFile, 0, len(files))
	for _, f := range files {
		if f.Size > maxSize {
			logger.Debugf("upload filter: %s (%d bytes) exceeds the %d byte cap", f.Name, f.Size, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (s *uploadService) UploadBatch(ctx context.Context, entity models.EntityRef, identity Identity, folderID uint, files []IncomingFile) ([]UploadOutcome, error) {
	identity, err := EnsureSignedIn(identity)
	if err != nil {
		return nil, err
	}

	depth := 0
	if folderID != models.RootFolderID {
		folder, err := s.folders.GetByIDAndEntity(ctx, nil, folderID, entity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newAppError(http.StatusNotFound, "target folder not found", nil)
			}
			return nil, newAppError(http.StatusInternalServerError, "failed to look up target folder", err)
		}
		depth = folder.Depth
	}

	outcomes := make([]UploadOutcome, 0, len(files))
	for _, incoming := range files {
		task, err := s.newTask(ctx, entity, identity, folderID, depth, incoming)
		if err != nil {
			return outcomes, err
		}

		err = s.transferOne(ctx, &task, incoming.Data)
		if errors.Is(err, errUploadCanceled) {
			outcomes = append(outcomes, UploadOutcome{UploadID: task.UploadID, FileName: task.FileName, Status: models.UploadStatusCanceled})
			continue
		}
		if err != nil {
			outcomes = append(outcomes, UploadOutcome{UploadID: task.UploadID, FileName: task.FileName, Status: models.UploadStatusFailed})
			return outcomes, newAppErrorWithData(http.StatusInternalServerError, "upload transfer failed", outcomes, err)
		}

		file, err := s.commitFile(ctx, entity, &task, incoming.Data)
		if err != nil {
			outcomes = append(outcomes, UploadOutcome{UploadID: task.UploadID, FileName: task.FileName, Status: models.UploadStatusFailed})
			return outcomes, err
		}
		outcomes = append(outcomes, UploadOutcome{UploadID: task.UploadID, FileName: task.FileName, Status: models.UploadStatusCompleted, File: file})

		s.notifier.AttachmentAdded(ctx, entity, file.Name, identity.UserID)
		s.activity.record(ctx, entity, models.ActivityFileUploaded, file.Name, identity.UserID)
	}

	if err := s.events.PublishChanged(ctx, entity); err != nil {
		logger.Warnf("publish tree change for %s: %v", entity, err)
	}
	return outcomes, nil
}

func (s *uploadService) newTask(ctx context.Context, entity models.EntityRef, identity Identity, folderID uint, depth int, incoming IncomingFile) (models.UploadTask, error) {
	name := sanitizeFileName(incoming.Name)
	if err := validateDisplayName(name); err != nil {
		return models.UploadTask{}, newAppError(http.StatusBadRequest, "invalid file name", err)
	}

	task := models.UploadTask{
		UploadID:    uuid.New().String(),
		EntityType:  entity.Type,
		EntityID:    entity.ID,
		FolderID:    folderID,
		Depth:       depth,
		FileName:    name,
		FileSize:    incoming.Size,
		StoragePath: BuildStoragePath(entity, folderID, name),
		Status:      models.UploadStatusPending,
		ActorID:     identity.UserID,
		ExpiresAt:   time.Now().Add(time.Duration(config.AppConfig.Upload.TaskExpireHours) * time.Hour),
	}
	if err := s.tasks.Create(ctx, nil, &task); err != nil {
		return models.UploadTask{}, newAppError(http.StatusInternalServerError, "failed to register upload task", err)
	}
	return task, nil
}

// transferOne moves one file's bytes into the blob store. It returns
// errUploadCanceled for a deliberate cancel and wraps
// ErrUploadTransferFailed when the resumable transfer and its
// single-shot fallback both fail.
func (s *uploadService) transferOne(ctx context.Context, task *models.UploadTask, data []byte) error {
	fileCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancels.register(task.UploadID, cancel)
	defer s.cancels.remove(task.UploadID)

	s.setStatus(ctx, task.UploadID, models.UploadStatusTransferring)

	expire := config.AppConfig.Redis.UploadTaskExpire
	report := func(transferred, total int64) {
		percent := 0.0
		if total > 0 {
			percent = float64(transferred) * 100 / float64(total)
		}
		if err := s.progress.SetPercent(ctx, task.UploadID, percent, expire); err != nil {
			logger.Debugf("upload %s: record progress: %v", task.UploadID, err)
		}
	}

	err := s.blobs.PutResumable(fileCtx, task.StoragePath, bytes.NewReader(data), task.FileSize, report)
	if err != nil && fileCtx.Err() != nil && ctx.Err() == nil {
		s.setStatus(ctx, task.UploadID, models.UploadStatusCanceled)
		s.clearProgress(ctx, task.UploadID)
		return errUploadCanceled
	}
	if err != nil {
		logger.Warnf("upload %s: resumable transfer: %v, retrying single-shot", task.UploadID, err)
		err = s.blobs.Put(ctx, task.StoragePath, bytes.NewReader(data), task.FileSize)
	}
	if err != nil {
		s.setStatus(ctx, task.UploadID, models.UploadStatusFailed)
		s.clearProgress(ctx, task.UploadID)
		return fmt.Errorf("%w: %s: %v", ErrUploadTransferFailed, task.FileName, err)
	}
	return nil
}

// commitFile records the transferred blob as a file row and bumps the
// parent folder's size, in one transaction.
func (s *uploadService) commitFile(ctx context.Context, entity models.EntityRef, task *models.UploadTask, data []byte) (*models.File, error) {
	downloadURL, err := s.blobs.URLFor(ctx, task.StoragePath)
	if err != nil {
		logger.Warnf("upload %s: derive download url: %v", task.UploadID, err)
		downloadURL = ""
	}

	file := models.File{
		Name:          task.FileName,
		Size:          task.FileSize,
		Type:          fileType(task.FileName),
		ParentID:      task.FolderID,
		Depth:         task.Depth,
		StoragePath:   task.StoragePath,
		DownloadURL:   downloadURL,
		ThumbnailPath: s.makeThumbnail(ctx, entity, task, data),
		EntityType:    entity.Type,
		EntityID:      entity.ID,
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.Create(ctx, tx, &file); err != nil {
			return err
		}
		if task.FolderID != models.RootFolderID {
			return s.folders.AddSize(ctx, tx, task.FolderID, task.FileSize)
		}
		return nil
	})
	if err != nil {
		s.setStatus(ctx, task.UploadID, models.UploadStatusFailed)
		s.clearProgress(ctx, task.UploadID)
		if delErr := s.blobs.Delete(ctx, task.StoragePath); delErr != nil {
			logger.Warnf("upload %s: remove orphaned blob: %v", task.UploadID, delErr)
		}
		return nil, newAppError(http.StatusInternalServerError, "failed to record uploaded file", err)
	}

	s.setStatus(ctx, task.UploadID, models.UploadStatusCompleted)
	s.clearProgress(ctx, task.UploadID)
	return &file, nil
}

// makeThumbnail renders and stores a thumbnail for image attachments.
// Best effort: any failure leaves the file without one.
func (s *uploadService) makeThumbnail(ctx context.Context, entity models.EntityRef, task *models.UploadTask, data []byte) string {
	if !config.AppConfig.Thumbnail.Enabled || !IsImageFile(task.FileName) {
		return ""
	}
	thumb, err := MakeThumbnail(data)
	if err != nil {
		logger.Warnf("upload %s: thumbnail: %v", task.UploadID, err)
		return ""
	}
	thumbPath := BuildThumbStoragePath(entity, task.FolderID, task.FileName)
	if err := s.blobs.Put(ctx, thumbPath, bytes.NewReader(thumb), int64(len(thumb))); err != nil {
		logger.Warnf("upload %s: store thumbnail: %v", task.UploadID, err)
		return ""
	}
	return thumbPath
}

func (s *uploadService) Cancel(ctx context.Context, uploadID string) error {
	if s.cancels.cancel(uploadID) {
		return nil
	}

	task, err := s.tasks.GetByUploadID(ctx, nil, uploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, "upload not found", nil)
		}
		return newAppError(http.StatusInternalServerError, "failed to look up upload", err)
	}
	switch task.Status {
	case models.UploadStatusCompleted, models.UploadStatusFailed, models.UploadStatusCanceled:
		return newAppError(http.StatusConflict, "upload already finished", nil)
	}
	// Pending task with no in-flight transfer in this process; mark it so
	// the cleanup worker reclaims the partial blob.
	s.setStatus(ctx, uploadID, models.UploadStatusCanceled)
	return nil
}

func (s *uploadService) Progress(ctx context.Context, uploadID string) (float64, string, error) {
	task, err := s.tasks.GetByUploadID(ctx, nil, uploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", newAppError(http.StatusNotFound, "upload not found", nil)
		}
		return 0, "", newAppError(http.StatusInternalServerError, "failed to look up upload", err)
	}
	if task.Status == models.UploadStatusCompleted {
		return 100, task.Status, nil
	}

	percent, err := s.progress.GetPercent(ctx, uploadID)
	if err != nil {
		logger.Warnf("upload %s: read progress: %v", uploadID, err)
		percent = 0
	}
	return percent, task.Status, nil
}

func (s *uploadService) setStatus(ctx context.Context, uploadID string, status string) {
	if err := s.tasks.UpdateStatus(ctx, nil, uploadID, status); err != nil {
		logger.Warnf("upload %s: set status %s: %v", uploadID, status, err)
	}
}

func (s *uploadService) clearProgress(ctx context.Context, uploadID string) {
	if err := s.progress.Clear(ctx, uploadID); err != nil {
		logger.Debugf("upload %s: clear progress: %v", uploadID, err)
	}
}
