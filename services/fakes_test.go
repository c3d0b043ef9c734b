package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"sitedocs/blobstore"
	"sitedocs/config"
	"sitedocs/models"
	"sitedocs/repositories"

	"gorm.io/gorm"
)

func setTestConfig() {
	config.AppConfig = &config.Config{
		Auth:      config.AuthConfig{AllowAnonymous: true},
		Upload:    config.UploadConfig{MaxFileSize: 50 * 1024 * 1024, TaskExpireHours: 1},
		Thumbnail: config.ThumbnailConfig{Enabled: false},
		Redis:     config.RedisConfig{UploadTaskExpire: 60},
	}
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeFolderRepo struct {
	folders     map[uint]models.Folder
	nextID      uint
	createErr   error
	createCalls int
	sizeAdds    map[uint]int64
	deleted     []uint
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{
		folders:  map[uint]models.Folder{},
		nextID:   1,
		sizeAdds: map[uint]int64{},
	}
}

func (r *fakeFolderRepo) add(folder models.Folder) models.Folder {
	if folder.ID == 0 {
		folder.ID = r.nextID
		r.nextID++
	} else if folder.ID >= r.nextID {
		r.nextID = folder.ID + 1
	}
	r.folders[folder.ID] = folder
	return folder
}

func (r *fakeFolderRepo) matches(folder models.Folder, entity models.EntityRef) bool {
	return folder.EntityType == entity.Type && folder.EntityID == entity.ID
}

func (r *fakeFolderRepo) Create(_ context.Context, _ *gorm.DB, folder *models.Folder) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	*folder = r.add(*folder)
	return nil
}

func (r *fakeFolderRepo) GetByIDAndEntity(_ context.Context, _ *gorm.DB, folderID uint, entity models.EntityRef) (models.Folder, error) {
	folder, ok := r.folders[folderID]
	if !ok || !r.matches(folder, entity) {
		return models.Folder{}, gorm.ErrRecordNotFound
	}
	return folder, nil
}

func (r *fakeFolderRepo) ListByEntity(_ context.Context, _ *gorm.DB, entity models.EntityRef) ([]models.Folder, error) {
	out := make([]models.Folder, 0)
	for _, folder := range r.folders {
		if r.matches(folder, entity) {
			out = append(out, folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFolderRepo) ListByParent(_ context.Context, _ *gorm.DB, entity models.EntityRef, parentID uint) ([]models.Folder, error) {
	out := make([]models.Folder, 0)
	for _, folder := range r.folders {
		if r.matches(folder, entity) && folder.ParentID == parentID {
			out = append(out, folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFolderRepo) CountByParentAndName(_ context.Context, _ *gorm.DB, entity models.EntityRef, parentID uint, name string, excludeID uint) (int64, error) {
	var count int64
	for _, folder := range r.folders {
		if r.matches(folder, entity) && folder.ParentID == parentID && folder.Name == name && folder.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeFolderRepo) UpdateByID(_ context.Context, _ *gorm.DB, folderID uint, updates map[string]interface{}) error {
	folder, ok := r.folders[folderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"]; ok {
		folder.Name = name.(string)
	}
	r.folders[folderID] = folder
	return nil
}

func (r *fakeFolderRepo) AddSize(_ context.Context, _ *gorm.DB, folderID uint, delta int64) error {
	folder, ok := r.folders[folderID]
	if ok {
		folder.Size += delta
		r.folders[folderID] = folder
	}
	r.sizeAdds[folderID] += delta
	return nil
}

func (r *fakeFolderRepo) DeleteByID(_ context.Context, _ *gorm.DB, folderID uint) error {
	delete(r.folders, folderID)
	r.deleted = append(r.deleted, folderID)
	return nil
}

type fakeFileRepo struct {
	files     map[uint]models.File
	nextID    uint
	createErr error
	deleted   []uint
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[uint]models.File{}, nextID: 1}
}

func (r *fakeFileRepo) add(file models.File) models.File {
	if file.ID == 0 {
		file.ID = r.nextID
		r.nextID++
	} else if file.ID >= r.nextID {
		r.nextID = file.ID + 1
	}
	r.files[file.ID] = file
	return file
}

func (r *fakeFileRepo) matches(file models.File, entity models.EntityRef) bool {
	return file.EntityType == entity.Type && file.EntityID == entity.ID
}

func (r *fakeFileRepo) Create(_ context.Context, _ *gorm.DB, file *models.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	*file = r.add(*file)
	return nil
}

func (r *fakeFileRepo) GetByIDAndEntity(_ context.Context, _ *gorm.DB, fileID uint, entity models.EntityRef) (models.File, error) {
	file, ok := r.files[fileID]
	if !ok || !r.matches(file, entity) {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) ListByEntity(_ context.Context, _ *gorm.DB, entity models.EntityRef) ([]models.File, error) {
	out := make([]models.File, 0)
	for _, file := range r.files {
		if r.matches(file, entity) {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) ListByParent(_ context.Context, _ *gorm.DB, entity models.EntityRef, parentID uint) ([]models.File, error) {
	out := make([]models.File, 0)
	for _, file := range r.files {
		if r.matches(file, entity) && file.ParentID == parentID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) UpdateByIDAndEntity(_ context.Context, _ *gorm.DB, fileID uint, entity models.EntityRef, updates map[string]interface{}) error {
	file, ok := r.files[fileID]
	if !ok || !r.matches(file, entity) {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"]; ok {
		file.Name = name.(string)
	}
	if fileType, ok := updates["type"]; ok {
		file.Type = fileType.(string)
	}
	r.files[fileID] = file
	return nil
}

func (r *fakeFileRepo) CountByStoragePath(_ context.Context, _ *gorm.DB, storagePath string) (int64, error) {
	var count int64
	for _, file := range r.files {
		if file.StoragePath == storagePath {
			count++
		}
	}
	return count, nil
}

func (r *fakeFileRepo) DeleteByID(_ context.Context, _ *gorm.DB, fileID uint) error {
	delete(r.files, fileID)
	r.deleted = append(r.deleted, fileID)
	return nil
}

type fakeUploadTaskRepo struct {
	tasks map[string]models.UploadTask
	order []string
}

func newFakeUploadTaskRepo() *fakeUploadTaskRepo {
	return &fakeUploadTaskRepo{tasks: map[string]models.UploadTask{}}
}

func (r *fakeUploadTaskRepo) Create(_ context.Context, _ *gorm.DB, task *models.UploadTask) error {
	if task.ID == 0 {
		task.ID = uint(len(r.order) + 1)
	}
	r.tasks[task.UploadID] = *task
	r.order = append(r.order, task.UploadID)
	return nil
}

func (r *fakeUploadTaskRepo) GetByUploadID(_ context.Context, _ *gorm.DB, uploadID string) (models.UploadTask, error) {
	task, ok := r.tasks[uploadID]
	if !ok {
		return models.UploadTask{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (r *fakeUploadTaskRepo) UpdateStatus(_ context.Context, _ *gorm.DB, uploadID string, status string) error {
	task, ok := r.tasks[uploadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	task.Status = status
	r.tasks[uploadID] = task
	return nil
}

func (r *fakeUploadTaskRepo) DeleteByID(_ context.Context, _ *gorm.DB, id uint) error {
	for uploadID, task := range r.tasks {
		if task.ID == id {
			delete(r.tasks, uploadID)
			return nil
		}
	}
	return nil
}

func (r *fakeUploadTaskRepo) ListExpiredAndUncompleted(_ context.Context, _ *gorm.DB, now time.Time) ([]models.UploadTask, error) {
	out := make([]models.UploadTask, 0)
	for _, task := range r.tasks {
		if task.ExpiresAt.Before(now) && task.Status != models.UploadStatusCompleted {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUploadTaskRepo) statusOf(i int) string {
	return r.tasks[r.order[i]].Status
}

type fakeProgressRepo struct {
	percents map[string]float64
	cleared  []string
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{percents: map[string]float64{}}
}

func (r *fakeProgressRepo) SetPercent(_ context.Context, uploadID string, percent float64, _ int) error {
	r.percents[uploadID] = percent
	return nil
}

func (r *fakeProgressRepo) GetPercent(_ context.Context, uploadID string) (float64, error) {
	return r.percents[uploadID], nil
}

func (r *fakeProgressRepo) Clear(_ context.Context, uploadID string) error {
	delete(r.percents, uploadID)
	r.cleared = append(r.cleared, uploadID)
	return nil
}

type fakeTreeEventsRepo struct {
	published []models.EntityRef
	events    chan struct{}
	stopped   bool
}

func newFakeTreeEventsRepo() *fakeTreeEventsRepo {
	return &fakeTreeEventsRepo{events: make(chan struct{}, 8)}
}

func (r *fakeTreeEventsRepo) PublishChanged(_ context.Context, entity models.EntityRef) error {
	r.published = append(r.published, entity)
	return nil
}

func (r *fakeTreeEventsRepo) SubscribeChanged(_ context.Context, _ models.EntityRef) (<-chan struct{}, func(), error) {
	return r.events, func() {
		if !r.stopped {
			r.stopped = true
			close(r.events)
		}
	}, nil
}

type fakeActivityRepo struct {
	entries []models.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, _ *gorm.DB, entry *models.ActivityLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

type notifierCall struct {
	event    string
	fileName string
}

type fakeNotifier struct {
	calls []notifierCall
}

func (n *fakeNotifier) AttachmentAdded(_ context.Context, _ models.EntityRef, fileName string, _ string) {
	n.calls = append(n.calls, notifierCall{event: "added", fileName: fileName})
}

func (n *fakeNotifier) AttachmentDeleted(_ context.Context, _ models.EntityRef, fileName string, _ string) {
	n.calls = append(n.calls, notifierCall{event: "deleted", fileName: fileName})
}

// fakeBlobStore backs upload/delete tests with per-path failure injection
// and a mid-transfer hook for cancel scenarios.
type fakeBlobStore struct {
	mu            sync.Mutex
	objects       map[string][]byte
	failResumable map[string]bool
	failPut       map[string]bool
	deleteErrFor  map[string]error
	onTransfer    func(path string)
	deletes       []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:       map[string][]byte{},
		failResumable: map[string]bool{},
		failPut:       map[string]bool{},
		deleteErrFor:  map[string]error{},
	}
}

func (s *fakeBlobStore) Put(ctx context.Context, path string, r io.Reader, _ int64) error {
	if s.failPut[path] {
		return io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[path] = data
	s.mu.Unlock()
	return nil
}

func (s *fakeBlobStore) PutResumable(ctx context.Context, path string, r io.Reader, size int64, progress blobstore.ProgressFunc) error {
	if s.onTransfer != nil {
		s.onTransfer(path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failResumable[path] {
		return io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if progress != nil {
		progress(int64(len(data)), size)
	}
	s.mu.Lock()
	s.objects[path] = data
	s.mu.Unlock()
	return nil
}

func (s *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.objects[path]
	s.mu.Unlock()
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, path string) error {
	if err := s.deleteErrFor[path]; err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	s.deletes = append(s.deletes, path)
	return nil
}

func (s *fakeBlobStore) URLFor(_ context.Context, path string) (string, error) {
	return "http://blobs.test/" + path, nil
}

func (s *fakeBlobStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

type fakeRepoSet struct {
	txManager fakeTxManager
	folders   *fakeFolderRepo
	files     *fakeFileRepo
	tasks     *fakeUploadTaskRepo
	progress  *fakeProgressRepo
	events    *fakeTreeEventsRepo
	activity  *fakeActivityRepo
}

func newFakeRepoSet() *fakeRepoSet {
	return &fakeRepoSet{
		folders:  newFakeFolderRepo(),
		files:    newFakeFileRepo(),
		tasks:    newFakeUploadTaskRepo(),
		progress: newFakeProgressRepo(),
		events:   newFakeTreeEventsRepo(),
		activity: &fakeActivityRepo{},
	}
}

func (s *fakeRepoSet) container() *repositories.Container {
	return &repositories.Container{
		TxManager:      s.txManager,
		Folders:        s.folders,
		Files:          s.files,
		UploadTasks:    s.tasks,
		ActivityLog:    s.activity,
		UploadProgress: s.progress,
		TreeEvents:     s.events,
	}
}

func testEntity() models.EntityRef {
	return models.EntityRef{Type: models.EntityProject, ID: "p-100"}
}
