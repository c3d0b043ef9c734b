package services

import (
	"sitedocs/blobstore"
	"sitedocs/repositories"
)

type Container struct {
	Tree    TreeService
	Folder  FolderService
	File    FileService
	Upload  UploadService
	Delete  DeleteService
	Archive ArchiveService
	Cleanup CleanupService
}

func NewContainer(repos *repositories.Container, blobs blobstore.Store, notifier Notifier) *Container {
	container := &Container{
		Tree:    NewTreeService(repos.Folders, repos.Files, repos.TreeEvents),
		Folder:  NewFolderService(repos.Folders, repos.TreeEvents, repos.ActivityLog),
		File:    NewFileService(repos.Files, repos.TreeEvents, repos.ActivityLog),
		Upload:  NewUploadService(repos, blobs, notifier),
		Delete:  NewDeleteService(repos, blobs, notifier),
		Archive: NewArchiveService(repos.Folders, repos.Files, blobs),
		Cleanup: NewCleanupService(repos.UploadTasks, repos.Files, repos.UploadProgress, blobs),
	}
	SetCleanupService(container.Cleanup)
	return container
}
