package documents

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
)

// fakeBucket serves the path-style PUT/GET/DELETE object calls used by S3Store.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := b.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestObjectKey(t *testing.T) {
	key := objectKey("../../etc/ata.pdf")
	assert.True(t, strings.HasPrefix(key, "documents/"))
	assert.True(t, strings.HasSuffix(key, "/ata.pdf"))
	assert.NotContains(t, key, "..")

	assert.True(t, strings.HasSuffix(objectKey(""), "/file"))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestS3StoreAgainstFakeBucket(t *testing.T) {
	bucket := &fakeBucket{objects: make(map[string][]byte)}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	ctx := context.Background()
	store, err := NewS3Store(ctx, S3Config{
		Bucket:          "swimref",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	ref, err := store.Put(ctx, application.DocumentMeta{Name: "ata.txt", MIMEType: "text/plain"}, strings.NewReader("ata da reunião"))
	require.NoError(t, err)

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "ata da reunião", string(content))

	url, err := store.DownloadURL(ctx, ref)
	require.NoError(t, err)
	assert.Contains(t, url, server.URL+"/swimref/"+ref)
	assert.Contains(t, url, "X-Amz-Signature=")

	require.NoError(t, store.Delete(ctx, ref))
	_, err = store.Open(ctx, ref)
	assert.ErrorIs(t, err, application.ErrNotFound)
}
