package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/tranqh/formintake/internal/domain"
)

type fakeImageStore struct {
	recs        map[string]*domain.ImageRecord
	markWon     bool
	markErr     error
	upserts     []domain.ImageRecord
	markedNames []string
}

func (f *fakeImageStore) Get(ctx context.Context, name string) (*domain.ImageRecord, error) {
	return f.recs[name], nil
}

func (f *fakeImageStore) Upsert(ctx context.Context, rec *domain.ImageRecord) error {
	f.upserts = append(f.upserts, *rec)
	return nil
}

func (f *fakeImageStore) TryMarkProcessing(ctx context.Context, name string) (bool, error) {
	f.markedNames = append(f.markedNames, name)
	return f.markWon, f.markErr
}

func (f *fakeImageStore) Delete(ctx context.Context, name string) error {
	delete(f.recs, name)
	return nil
}

func (f *fakeImageStore) List(ctx context.Context, folderPath *string, page, limit int) ([]domain.ImageRecord, int64, error) {
	return nil, 0, nil
}

type fakeExtractionGetter struct {
	rec *domain.ExtractionRecord
}

func (f *fakeExtractionGetter) Get(ctx context.Context, name string) (*domain.ExtractionRecord, error) {
	return f.rec, nil
}

type fakeEnqueuer struct {
	task    string
	payload interface{}
	err     error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task string, payload interface{}) (string, error) {
	f.task = task
	f.payload = payload
	return "job-1", f.err
}

func TestTimestampName(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{8}_\d{6}_\d{6}\.jpg$`)

	name := TimestampName("scan.JPG")
	if !pattern.MatchString(name) {
		t.Errorf("unexpected name format: %q", name)
	}

	if got := TimestampName("form.png"); got[len(got)-4:] != ".png" {
		t.Errorf("expected .png suffix, got %q", got)
	}

	// Missing extension falls back to .jpg
	if got := TimestampName("noext"); got[len(got)-4:] != ".jpg" {
		t.Errorf("expected .jpg fallback, got %q", got)
	}
}

func TestRoundSizeMB(t *testing.T) {
	tests := []struct {
		bytes int64
		want  float64
	}{
		{0, 0},
		{1 << 20, 1.0},
		{3 << 19, 1.5},
		{1234567, 1.18},
	}
	for _, tt := range tests {
		if got := RoundSizeMB(tt.bytes); got != tt.want {
			t.Errorf("RoundSizeMB(%d) = %v, want %v", tt.bytes, got, tt.want)
		}
	}
}

func TestEnqueueExtract_ImageNotFound(t *testing.T) {
	store := &fakeImageStore{recs: map[string]*domain.ImageRecord{}}
	q := &fakeEnqueuer{}
	svc := NewImageService(store, &fakeExtractionGetter{}, nil, q, UploadLimits{})

	_, err := svc.EnqueueExtract(context.Background(), domain.ExtractPayload{ImageName: "missing.jpg"})
	if !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
	if q.task != "" {
		t.Error("expected no enqueue for missing image")
	}
}

func TestEnqueueExtract_AlreadyProcessing(t *testing.T) {
	store := &fakeImageStore{
		recs: map[string]*domain.ImageRecord{
			"a.jpg": {ImageName: "a.jpg", Status: domain.StatusProcessing},
		},
	}
	q := &fakeEnqueuer{}
	svc := NewImageService(store, &fakeExtractionGetter{}, nil, q, UploadLimits{})

	_, err := svc.EnqueueExtract(context.Background(), domain.ExtractPayload{ImageName: "a.jpg"})
	if !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
	if len(store.markedNames) != 0 {
		t.Error("expected no conditional mark when status already shows Processing")
	}
}

func TestEnqueueExtract_LostRace(t *testing.T) {
	store := &fakeImageStore{
		recs: map[string]*domain.ImageRecord{
			"a.jpg": {ImageName: "a.jpg", Status: domain.StatusUploaded},
		},
		markWon: false,
	}
	q := &fakeEnqueuer{}
	svc := NewImageService(store, &fakeExtractionGetter{}, nil, q, UploadLimits{})

	_, err := svc.EnqueueExtract(context.Background(), domain.ExtractPayload{ImageName: "a.jpg"})
	if !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing when losing the mark race, got %v", err)
	}
	if q.task != "" {
		t.Error("expected no enqueue after losing the mark race")
	}
}

func TestEnqueueExtract_MarkErrorStillEnqueues(t *testing.T) {
	store := &fakeImageStore{
		recs: map[string]*domain.ImageRecord{
			"a.jpg": {ImageName: "a.jpg", Status: domain.StatusUploaded},
		},
		markErr: errors.New("record store down"),
	}
	q := &fakeEnqueuer{}
	svc := NewImageService(store, &fakeExtractionGetter{}, nil, q, UploadLimits{})

	id, err := svc.EnqueueExtract(context.Background(), domain.ExtractPayload{ImageName: "a.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-1" || q.task != domain.TaskExtractForm {
		t.Errorf("expected enqueue despite mark failure, got id=%q task=%q", id, q.task)
	}
}

func TestEnqueueExtract_Success(t *testing.T) {
	store := &fakeImageStore{
		recs: map[string]*domain.ImageRecord{
			"a.jpg": {
				ImageName:  "a.jpg",
				Status:     domain.StatusUploaded,
				ImagePath:  "https://cdn.example.com/forms/a.jpg",
				CreatedAt:  "20250101_120000_000000",
				FolderPath: "forms",
				Size:       1.25,
			},
		},
		markWon: true,
	}
	q := &fakeEnqueuer{}
	svc := NewImageService(store, &fakeExtractionGetter{}, nil, q, UploadLimits{})

	id, err := svc.EnqueueExtract(context.Background(), domain.ExtractPayload{ImageName: "a.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-1" {
		t.Errorf("unexpected job id: %q", id)
	}
	if q.task != domain.TaskExtractForm {
		t.Errorf("unexpected task: %q", q.task)
	}

	// Missing payload fields are filled from the stored record.
	p, ok := q.payload.(domain.ExtractPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", q.payload)
	}
	if p.ImagePath != "https://cdn.example.com/forms/a.jpg" || p.FolderPath != "forms" || p.Size != 1.25 {
		t.Errorf("expected payload merged from record, got %+v", p)
	}

	// Record refreshed to Processing ahead of the worker.
	if len(store.upserts) != 1 || store.upserts[0].Status != domain.StatusProcessing {
		t.Errorf("expected one Processing upsert, got %+v", store.upserts)
	}
}
