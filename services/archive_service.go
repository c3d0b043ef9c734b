package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"sitedocs/blobstore"
	"sitedocs/logger"
	"sitedocs/models"
	"sitedocs/repositories"

	"github.com/klauspost/compress/zip"
	"gorm.io/gorm"
)

type ArchiveService interface {
	// DownloadFile opens a file's content. It fetches the cached download
	// URL when one exists and otherwise reads the blob store by storage
	// path; with neither available it fails with ErrNotDownloadable.
	DownloadFile(ctx context.Context, entity models.EntityRef, fileID uint) (io.ReadCloser, models.File, error)
	// ExportFolder renders the folder's subtree as a zip archive named
	// after the folder. Every file becomes a flat entry keyed by its
	// name; a name already taken gets a numeric suffix. Files whose
	// content cannot be fetched are skipped.
	ExportFolder(ctx context.Context, entity models.EntityRef, folderID uint) ([]byte, string, error)
}

type archiveService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	blobs   blobstore.Store
	client  *http.Client
}

func NewArchiveService(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	blobs blobstore.Store,
) ArchiveService {
	return &archiveService{
		folders: folders,
		files:   files,
		blobs:   blobs,
		client:  &http.Client{},
	}
}

func (s *archiveService) DownloadFile(ctx context.Context, entity models.EntityRef, fileID uint) (io.ReadCloser, models.File, error) {
	file, err := s.files.GetByIDAndEntity(ctx, nil, fileID, entity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.File{}, newAppError(http.StatusNotFound, "file not found", nil)
		}
		return nil, models.File{}, newAppError(http.StatusInternalServerError, "failed to look up file", err)
	}

	rc, err := s.openContent(ctx, file)
	if err != nil {
		if errors.Is(err, ErrNotDownloadable) {
			return nil, models.File{}, newAppError(http.StatusNotFound, "file content is not available", err)
		}
		return nil, models.File{}, newAppError(http.StatusInternalServerError, "failed to fetch file content", err)
	}
	return rc, file, nil
}

func (s *archiveService) ExportFolder(ctx context.Context, entity models.EntityRef, folderID uint) ([]byte, string, error) {
	archiveName := entity.Type.CollectionName() + "-" + entity.ID + ".zip"
	if folderID != models.RootFolderID {
		folder, err := s.folders.GetByIDAndEntity(ctx, nil, folderID, entity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", newAppError(http.StatusNotFound, "folder not found", nil)
			}
			return nil, "", newAppError(http.StatusInternalServerError, "failed to look up folder", err)
		}
		archiveName = folder.Name + ".zip"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := s.writeSubtree(ctx, zw, entity, folderID, 0, make(map[uint]bool), make(map[string]bool)); err != nil {
		zw.Close()
		if errors.Is(err, ErrTreeCorrupted) {
			return nil, "", newAppError(http.StatusInternalServerError, "attachment tree is corrupted", err)
		}
		return nil, "", newAppError(http.StatusInternalServerError, "failed to build archive", err)
	}
	if err := zw.Close(); err != nil {
		return nil, "", newAppError(http.StatusInternalServerError, "failed to finish archive", err)
	}
	return buf.Bytes(), archiveName, nil
}

// writeSubtree walks one folder level and recurses. The visited set and
// the depth bound keep corrupt parent links from looping the walk.
func (s *archiveService) writeSubtree(ctx context.Context, zw *zip.Writer, entity models.EntityRef, folderID uint, level int, visited map[uint]bool, taken map[string]bool) error {
	if level > models.MaxFolderDepth {
		return fmt.Errorf("%w: walk below folder %d exceeds depth bound", ErrTreeCorrupted, folderID)
	}
	if folderID != models.RootFolderID {
		if visited[folderID] {
			return fmt.Errorf("%w: cycle through folder %d", ErrTreeCorrupted, folderID)
		}
		visited[folderID] = true
	}

	files, err := s.files.ListByParent(ctx, nil, entity, folderID)
	if err != nil {
		return fmt.Errorf("list files of folder %d: %w", folderID, err)
	}
	for _, file := range files {
		if err := s.writeEntry(ctx, zw, file, taken); err != nil {
			return err
		}
	}

	subfolders, err := s.folders.ListByParent(ctx, nil, entity, folderID)
	if err != nil {
		return fmt.Errorf("list subfolders of folder %d: %w", folderID, err)
	}
	for _, sub := range subfolders {
		if err := s.writeSubtree(ctx, zw, entity, sub.ID, level+1, visited, taken); err != nil {
			return err
		}
	}
	return nil
}

func (s *archiveService) writeEntry(ctx context.Context, zw *zip.Writer, file models.File, taken map[string]bool) error {
	rc, err := s.openContent(ctx, file)
	if err != nil {
		// An unfetchable file is left out of the archive rather than
		// failing the whole export.
		logger.Warnf("export: skip file %d (%s): %v", file.ID, file.Name, err)
		return nil
	}
	defer rc.Close()

	w, err := zw.Create(entryName(taken, file.Name))
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", file.Name, err)
	}
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("write archive entry %s: %w", file.Name, err)
	}
	return nil
}

// entryName claims a flat archive entry name. Duplicate file names from
// different folders collapse onto the same key, so later claims take a
// counter suffix before the extension.
func entryName(taken map[string]bool, name string) string {
	if !taken[name] {
		taken[name] = true
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

// openContent resolves a file's bytes: the cached download URL when one
// exists, otherwise the blob store by storage path.
func (s *archiveService) openContent(ctx context.Context, file models.File) (io.ReadCloser, error) {
	if file.DownloadURL != "" {
		rc, err := s.fetchURL(ctx, file.DownloadURL)
		if err == nil {
			return rc, nil
		}
		if file.StoragePath == "" {
			return nil, err
		}
		logger.Debugf("fetch cached url for file %d failed, reading storage path: %v", file.ID, err)
	}

	if file.StoragePath != "" {
		rc, err := s.blobs.Get(ctx, file.StoragePath)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, blobstore.ErrNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotDownloadable
}

func (s *archiveService) fetchURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch download url: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch download url: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
