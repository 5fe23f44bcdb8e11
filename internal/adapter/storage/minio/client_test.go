package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/GoArmGo/PromptReveal/internal/config"
	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
	"github.com/GoArmGo/PromptReveal/internal/logger"
)

// fakeS3 понимает ровно те запросы, которые делает Gateway (path-style).
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	policies map[string]string
	objects  map[string][]byte
	ctypes   map[string]string

	creates  atomic.Int32
	denyPuts atomic.Bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:  map[string]bool{},
		policies: map[string]string{},
		objects:  map[string][]byte{},
		ctypes:   map[string]string{},
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case key == "" && r.Method == http.MethodPut && r.URL.Query().Has("policy"):
		body, _ := io.ReadAll(r.Body)
		f.policies[bucket] = string(body)
		w.WriteHeader(http.StatusNoContent)

	case key == "" && r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		if f.buckets[bucket] {
			writeS3Error(w, http.StatusConflict, "BucketAlreadyOwnedByYou")
			return
		}
		f.creates.Add(1)
		f.buckets[bucket] = true
		w.Header().Set("Location", "/"+bucket)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if f.denyPuts.Load() {
			writeS3Error(w, http.StatusForbidden, "AccessDenied")
			return
		}
		if !f.buckets[bucket] {
			writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
			return
		}
		id := bucket + "/" + key
		if _, exists := f.objects[id]; exists && r.Header.Get("If-None-Match") == "*" {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		f.objects[id] = body
		f.ctypes[id] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete:
		delete(f.objects, bucket+"/"+key)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented")
	}
}

func newTestGateway(t *testing.T, endpoint, publicBase string) *Gateway {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	cfg := &appconfig.Config{}
	cfg.Storage.Endpoint = endpoint
	cfg.Storage.AccessKeyID = "test-access"
	cfg.Storage.SecretAccessKey = "test-secret"
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.BucketName = "prompt-images"
	cfg.Storage.PublicBaseURL = publicBase

	gw, err := NewGateway(cfg, logger.Discard())
	require.NoError(t, err)
	return gw
}

func TestNewGatewayRequiresStorageSettings(t *testing.T) {
	_, err := NewGateway(&appconfig.Config{}, logger.Discard())
	require.Error(t, err)
}

func TestEnsureBucketCreatesOnceAndIsIdempotent(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = gw.EnsureBucket(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fake.creates.Load())
	assert.Contains(t, fake.policies["prompt-images"], `"s3:GetObject"`)

	// новый шлюз без памяти о предыдущем вызове находит существующий бакет
	other := newTestGateway(t, srv.URL, "")
	require.NoError(t, other.EnsureBucket(ctx))
	require.NoError(t, other.EnsureBucket(ctx))
	assert.Equal(t, int32(1), fake.creates.Load())
}

func TestPutRefusesToOverwrite(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, "")
	ctx := context.Background()
	require.NoError(t, gw.EnsureBucket(ctx))

	key := domain.OriginalKey(domain.ObjectFileName("abc", "jpg"))
	require.NoError(t, gw.Put(ctx, key, []byte("original bytes"), "image/jpeg"))
	assert.Equal(t, []byte("original bytes"), fake.objects["prompt-images/prompts/abc.jpg"])
	assert.Equal(t, "image/jpeg", fake.ctypes["prompt-images/prompts/abc.jpg"])

	err := gw.Put(ctx, key, []byte("other bytes"), "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, ports.StorageKeyExists, ports.StorageCategoryOf(err))
	assert.Equal(t, []byte("original bytes"), fake.objects["prompt-images/prompts/abc.jpg"])
}

func TestPutClassifiesPermissionAndBucketErrors(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, "")
	ctx := context.Background()

	err := gw.Put(ctx, "prompts/x.png", []byte("x"), "image/png")
	assert.Equal(t, ports.StorageBucketMisconfigured, ports.StorageCategoryOf(err))

	require.NoError(t, gw.EnsureBucket(ctx))
	fake.denyPuts.Store(true)
	err = gw.Put(ctx, "prompts/x.png", []byte("x"), "image/png")
	assert.Equal(t, ports.StoragePermissionDenied, ports.StorageCategoryOf(err))
}

func TestPutRejectsOversizedObjectLocally(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1", "")

	err := gw.Put(context.Background(), "prompts/big.jpg", make([]byte, MaxObjectSize+1), "image/jpeg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjectTooLarge))
	assert.Equal(t, ports.StorageTooLarge, ports.StorageCategoryOf(err))
}

func TestDeleteRemovesObject(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, "")
	ctx := context.Background()
	require.NoError(t, gw.EnsureBucket(ctx))
	require.NoError(t, gw.Put(ctx, domain.ThumbnailKey("abc.png"), []byte("thumb"), "image/webp"))

	require.NoError(t, gw.Delete(ctx, domain.ThumbnailKey("abc.png")))
	_, ok := fake.objects["prompt-images/thumbnails/abc.png"]
	assert.False(t, ok)
}

func TestPublicURL(t *testing.T) {
	gw := newTestGateway(t, "localhost:9000", "")
	assert.Equal(t, "http://localhost:9000/prompt-images/prompts/a.jpg", gw.PublicURL("prompts/a.jpg"))

	cdn := newTestGateway(t, "localhost:9000", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/thumbnails/a.png", cdn.PublicURL(domain.ThumbnailKey("a.png")))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ports.StorageCategory
	}{
		{"size message", errors.New("The object exceeded the maximum allowed size"), ports.StorageTooLarge},
		{"local limit", fmt.Errorf("put: %w", ErrObjectTooLarge), ports.StorageTooLarge},
		{"api bucket code", fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: "NoSuchBucket"}), ports.StorageBucketMisconfigured},
		{"bucket message", errors.New("Bucket not found"), ports.StorageBucketMisconfigured},
		{"api access code", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, ports.StoragePermissionDenied},
		{"policy message", errors.New("new row violates row-level security policy"), ports.StoragePermissionDenied},
		{"precondition code", &smithy.GenericAPIError{Code: "PreconditionFailed"}, ports.StorageKeyExists},
		{"duplicate message", errors.New("The resource already exists"), ports.StorageKeyExists},
		{"anything else", errors.New("connection reset by peer"), ports.StorageGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
