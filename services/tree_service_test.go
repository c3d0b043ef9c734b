package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"sitedocs/models"
)

func newTreeServiceForTest(repos *fakeRepoSet) TreeService {
	return NewTreeService(repos.folders, repos.files, repos.events)
}

func TestTreeServiceGetSnapshot(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	entity := testEntity()
	docs := repos.folders.add(models.Folder{Name: "docs", ParentID: 0, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})
	repos.files.add(models.File{Name: "a.txt", ParentID: docs.ID, EntityType: entity.Type, EntityID: entity.ID})

	// Records of another entity stay out of the snapshot.
	other := models.EntityRef{Type: models.EntityLead, ID: "l-9"}
	repos.folders.add(models.Folder{Name: "foreign", ParentID: 0, Depth: 1, EntityType: other.Type, EntityID: other.ID})

	svc := newTreeServiceForTest(repos)
	snapshot, err := svc.GetSnapshot(context.Background(), entity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Folders) != 1 || snapshot.Folders[0].Name != "docs" {
		t.Fatalf("unexpected folders: %#v", snapshot.Folders)
	}
	if len(snapshot.Files) != 1 {
		t.Fatalf("unexpected files: %#v", snapshot.Files)
	}
}

func TestTreeServiceGetSnapshotFailsOnCorruptTree(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	entity := testEntity()
	repos.folders.add(models.Folder{Name: "bad", ParentID: 99, Depth: 2, EntityType: entity.Type, EntityID: entity.ID})

	svc := newTreeServiceForTest(repos)
	_, err := svc.GetSnapshot(context.Background(), entity)
	if !errors.Is(err, ErrTreeCorrupted) {
		t.Fatalf("expected ErrTreeCorrupted, got %v", err)
	}
}

func TestTreeServiceListChildrenUnknownFolder(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()

	svc := newTreeServiceForTest(repos)
	_, _, err := svc.ListChildren(context.Background(), testEntity(), 77)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.HTTPCode != http.StatusNotFound {
		t.Fatalf("expected HTTP 404 AppError, got %v", err)
	}
}

func TestTreeServiceWatchTreePushesInitialAndChangedSnapshots(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()
	entity := testEntity()
	repos.folders.add(models.Folder{Name: "docs", ParentID: 0, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})

	svc := newTreeServiceForTest(repos)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, stop, err := svc.WatchTree(ctx, entity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stop()

	select {
	case snapshot := <-snapshots:
		if len(snapshot.Folders) != 1 {
			t.Fatalf("unexpected initial snapshot: %#v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an immediate snapshot")
	}

	repos.folders.add(models.Folder{Name: "more", ParentID: 0, Depth: 1, EntityType: entity.Type, EntityID: entity.ID})
	repos.events.events <- struct{}{}

	select {
	case snapshot := <-snapshots:
		if len(snapshot.Folders) != 2 {
			t.Fatalf("expected requeried snapshot, got %#v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a snapshot after the change event")
	}
}

func TestTreeServiceWatchTreeStopsOnUnsubscribe(t *testing.T) {
	setTestConfig()
	repos := newFakeRepoSet()

	svc := newTreeServiceForTest(repos)
	snapshots, stop, err := svc.WatchTree(context.Background(), testEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drain the initial snapshot, then unsubscribe.
	<-snapshots
	stop()

	select {
	case _, open := <-snapshots:
		if open {
			t.Fatalf("expected channel closed after stop")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected channel to close after stop")
	}
}
