package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"streamshare/internal/db"
	"streamshare/internal/storage"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

var errBackend = errors.New("backend unavailable")

// flakyStore wraps a MemoryStore and fails selected operations.
type flakyStore struct {
	*db.MemoryStore
	failGet    map[string]bool // by collection
	failUpsert map[string]bool
	failQuery  bool
	upserts    map[string]int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore: db.NewMemoryStore(),
		failGet:     map[string]bool{},
		failUpsert:  map[string]bool{},
		upserts:     map[string]int{},
	}
}

func (s *flakyStore) Get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	if s.failGet[collection] {
		return false, errBackend
	}
	return s.MemoryStore.Get(ctx, collection, id, out)
}

func (s *flakyStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	if s.failUpsert[collection] {
		return errBackend
	}
	s.upserts[collection]++
	return s.MemoryStore.Upsert(ctx, collection, id, doc)
}

func (s *flakyStore) Query(ctx context.Context, collection string, q db.Query, out interface{}) error {
	if s.failQuery {
		return errBackend
	}
	return s.MemoryStore.Query(ctx, collection, q, out)
}

type signedURL struct {
	bucket, path, contentType string
	ttl                       time.Duration
}

type fakeObjects struct {
	mu          sync.Mutex
	signed      []signedURL
	signErr     error
	formPost    bool
	downloadErr error
	uploaded    []string
}

func (f *fakeObjects) SignedUpload(ctx context.Context, bucket, path, contentType string, ttl time.Duration) (*storage.UploadCapability, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signed = append(f.signed, signedURL{bucket, path, contentType, ttl})
	if f.formPost {
		return &storage.UploadCapability{
			URL:    "https://objects.test/" + bucket,
			Method: "POST",
			Fields: map[string]string{"key": path, "Content-Type": contentType, "policy": "p", "X-Amz-Signature": "s"},
		}, nil
	}
	return &storage.UploadCapability{
		URL:     fmt.Sprintf("https://objects.test/%s/%s?sig=1", bucket, path),
		Method:  "PUT",
		Headers: map[string]string{"Content-Type": contentType},
	}, nil
}

func (f *fakeObjects) Download(ctx context.Context, bucket, path, dst string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(dst, []byte("source:"+path), 0o600)
}

func (f *fakeObjects) Upload(ctx context.Context, bucket, path, src, contentType string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, bucket+"/"+path)
	return "https://objects.test/" + bucket + "/" + path, nil
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic, payload})
	return nil
}

// fakeTranscoder writes an output file per profile and fails the profiles
// named in failOn.
type fakeTranscoder struct {
	mu     sync.Mutex
	failOn map[string]bool
	ran    []string
}

func (t *fakeTranscoder) Transcode(ctx context.Context, in, out string, p Profile) TranscodeResult {
	t.mu.Lock()
	t.ran = append(t.ran, p.Name)
	t.mu.Unlock()
	if t.failOn[p.Name] {
		return TranscodeResult{Outcome: TranscodeFailed, Err: fmt.Errorf("ffmpeg exited with status 1")}
	}
	if err := os.WriteFile(out, []byte(p.Name), 0o600); err != nil {
		return TranscodeResult{Outcome: TranscodeFailed, Err: err}
	}
	return TranscodeResult{Outcome: TranscodeSucceeded}
}

func (t *fakeTranscoder) Duration(ctx context.Context, in string) (time.Duration, error) {
	return 42 * time.Second, nil
}
