package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"audio-ingest/constant"
	"audio-ingest/dto"
	"audio-ingest/entities"
	"audio-ingest/pkg/storage"
)

type fakeRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*entities.Recording
	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]*entities.Recording)}
}

func (f *fakeRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (f *fakeRepo) Insert(ctx context.Context, recording *entities.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if recording.ID == uuid.Nil {
		recording.ID = uuid.New()
	}
	if recording.CreatedAt.IsZero() {
		recording.CreatedAt = time.Now()
	}
	clone := *recording
	f.records[recording.ID] = &clone
	return nil
}

func (f *fakeRepo) FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recording, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *recording
	return &clone, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userId uuid.UUID) ([]*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Recording
	for _, recording := range f.records {
		if recording.UserID == userId {
			clone := *recording
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recording, ok := f.records[id]
	if !ok || recording.Status != constant.RecordingStatusError {
		return nil
	}
	recording.Status = constant.RecordingStatusQueued
	recording.ErrorMessage = nil
	recording.StartedAt = nil
	recording.FinishedAt = nil
	return nil
}

func (f *fakeRepo) ExistsByFilePath(ctx context.Context, filePath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, recording := range f.records {
		if recording.FilePath == filePath {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeRepo) only() *entities.Recording {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, recording := range f.records {
		clone := *recording
		return &clone
	}
	return nil
}

var errObjectMissing = errors.New("object not found")

type fakeObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]fakeObject
	putErr    error
	removeErr error
	removed   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]fakeObject)}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.objects[key]; ok {
		return storage.ErrObjectExists
	}
	f.objects[key] = fakeObject{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, errObjectMissing
	}
	return obj.data, nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []storage.ObjectInfo
	for key, obj := range f.objects {
		infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
	}
	return infos, nil
}

func (f *fakeStore) put(key string, data []byte, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: data, modified: modified}
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type fakeBus struct {
	mu     sync.Mutex
	events []dto.ChangeEvent
}

func (f *fakeBus) Publish(ctx context.Context, event dto.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBus) all() []dto.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.ChangeEvent(nil), f.events...)
}
