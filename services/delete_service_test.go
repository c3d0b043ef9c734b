package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"sitedocs/models"
)

func newDeleteServiceForTest(repos *fakeRepoSet, blobs *fakeBlobStore, notifier *fakeNotifier) DeleteService {
	return NewDeleteService(repos.container(), blobs, notifier)
}

func seedFile(repos *fakeRepoSet, blobs *fakeBlobStore, entity models.EntityRef, name string, parentID uint, size int64) models.File {
	path := BuildStoragePath(entity, parentID, name)
	blobs.objects[path] = make([]byte, size)
	return repos.files.add(models.File{
		Name:        name,
		Size:        size,
		ParentID:    parentID,
		StoragePath: path,
		EntityType:  entity.Type,
		EntityID:    entity.ID,
	})
}

func TestDeleteServiceDeleteFile(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	blobs := newFakeBlobStore()
	notifier := &fakeNotifier{}
	entity := testEntity()
	folder := repos.folders.add(models.Folder{Name: "docs", Depth: 1, Size: 7, EntityType: entity.Type, EntityID: entity.ID})
	file := seedFile(repos, blobs, entity, "plan.pdf", folder.ID, 7)

	svc := newDeleteServiceForTest(repos, blobs, notifier)
	if err := svc.DeleteFile(context.Background(), entity, "u-1", file.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if blobs.has(file.StoragePath) {
		t.Fatalf("expected blob removed")
	}
	if _, ok := repos.files.files[file.ID]; ok {
		t.Fatalf("expected file record removed")
	}
	if repos.folders.sizeAdds[folder.ID] != -7 {
		t.Fatalf("expected folder size decremented by 7, got %d", repos.folders.sizeAdds[folder.ID])
	}
	if len(notifier.calls) != 1 || notifier.calls[0].event != "deleted" {
		t.Fatalf("expected delete notification, got %+v", notifier.calls)
	}
	if len(repos.activity.entries) != 1 || repos.activity.entries[0].Event != models.ActivityFileDeleted {
		t.Fatalf("expected file_deleted activity, got %+v", repos.activity.entries)
	}
}

func TestDeleteServiceDeleteFileRemovesThumbnail(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	blobs := newFakeBlobStore()
	entity := testEntity()
	file := seedFile(repos, blobs, entity, "site.jpg", models.RootFolderID, 3)
	thumbPath := BuildThumbStoragePath(entity, models.RootFolderID, "site.jpg")
	blobs.objects[thumbPath] = []byte("thumb")
	file.ThumbnailPath = thumbPath
	repos.files.files[file.ID] = file

	svc := newDeleteServiceForTest(repos, blobs, &fakeNotifier{})
	if err := svc.DeleteFile(context.Background(), entity, "u-1", file.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blobs.has(thumbPath) {
		t.Fatalf("expected thumbnail removed")
	}
}

func TestDeleteServiceDeleteFolderRecursive(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	blobs := newFakeBlobStore()
	entity := testEntity()

	// docs/ -> 2026/ -> q1/ with a file at every level.
	docs := repos.folders.add(models.Folder{Name: "docs", ParentID: 0, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})
	year := repos.folders.add(models.Folder{Name: "2026", ParentID: docs.ID, Depth: 2, EntityType: entity.Type, EntityID: entity.ID})
	q1 := repos.folders.add(models.Folder{Name: "q1", ParentID: year.ID, Depth: 3, EntityType: entity.Type, EntityID: entity.ID})
	f1 := seedFile(repos, blobs, entity, "a.txt", docs.ID, 1)
	f2 := seedFile(repos, blobs, entity, "b.txt", year.ID, 1)
	f3 := seedFile(repos, blobs, entity, "c.txt", q1.ID, 1)
	keep := seedFile(repos, blobs, entity, "keep.txt", models.RootFolderID, 1)

	svc := newDeleteServiceForTest(repos, blobs, &fakeNotifier{})
	if err := svc.DeleteFolder(context.Background(), entity, "u-1", docs.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repos.folders.folders) != 0 {
		t.Fatalf("expected all folders removed, got %d", len(repos.folders.folders))
	}
	for _, file := range []models.File{f1, f2, f3} {
		if _, ok := repos.files.files[file.ID]; ok {
			t.Fatalf("expected file %d removed", file.ID)
		}
		if blobs.has(file.StoragePath) {
			t.Fatalf("expected blob %s removed", file.StoragePath)
		}
	}
	if _, ok := repos.files.files[keep.ID]; !ok {
		t.Fatalf("expected sibling outside the subtree to survive")
	}
	if len(repos.activity.entries) != 1 || repos.activity.entries[0].Event != models.ActivityFolderDeleted {
		t.Fatalf("expected folder_deleted activity, got %+v", repos.activity.entries)
	}
}

func TestDeleteServiceDeleteFolderPartialFailureAndRetry(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	blobs := newFakeBlobStore()
	entity := testEntity()

	docs := repos.folders.add(models.Folder{Name: "docs", ParentID: 0, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})
	ok1 := seedFile(repos, blobs, entity, "a.txt", docs.ID, 1)
	stuck := seedFile(repos, blobs, entity, "b.txt", docs.ID, 1)
	blobs.deleteErrFor[stuck.StoragePath] = io.ErrUnexpectedEOF

	svc := newDeleteServiceForTest(repos, blobs, &fakeNotifier{})
	err := svc.DeleteFolder(context.Background(), entity, "u-1", docs.ID)
	if !errors.Is(err, ErrPartialDeleteFailure) {
		t.Fatalf("expected ErrPartialDeleteFailure, got %v", err)
	}
	// The step that succeeded stays deleted; the folder survives.
	if _, ok := repos.files.files[ok1.ID]; ok {
		t.Fatalf("expected first file removed before the failure")
	}
	if _, ok := repos.folders.folders[docs.ID]; !ok {
		t.Fatalf("expected folder to survive the partial failure")
	}

	// Once the blob store recovers, re-invoking finishes the job.
	delete(blobs.deleteErrFor, stuck.StoragePath)
	if err := svc.DeleteFolder(context.Background(), entity, "u-1", docs.ID); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if len(repos.folders.folders) != 0 || len(repos.files.files) != 0 {
		t.Fatalf("expected retry to finish the delete")
	}
}

func TestDeleteServiceDeleteRootRejected(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()

	svc := newDeleteServiceForTest(repos, newFakeBlobStore(), &fakeNotifier{})
	err := svc.DeleteFolder(context.Background(), testEntity(), "u-1", models.RootFolderID)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.HTTPCode != http.StatusBadRequest {
		t.Fatalf("expected HTTP 400 AppError, got %v", err)
	}
}

func TestDeleteServiceDeleteFolderRejectsCycle(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	entity := testEntity()

	// Two folders pointing at each other.
	a := repos.folders.add(models.Folder{ID: 1, Name: "a", ParentID: 2, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})
	repos.folders.add(models.Folder{ID: 2, Name: "b", ParentID: 1, Depth: 2, EntityType: entity.Type, EntityID: entity.ID})

	svc := newDeleteServiceForTest(repos, newFakeBlobStore(), &fakeNotifier{})
	err := svc.DeleteFolder(context.Background(), entity, "u-1", a.ID)
	if !errors.Is(err, ErrTreeCorrupted) {
		t.Fatalf("expected ErrTreeCorrupted, got %v", err)
	}
}
