package application_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/documents"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/memory"
	"github.com/swimref/roster/internal/testfixtures"
)

type recordingContent struct {
	mu      sync.Mutex
	objects map[string]string
	failPut error
}

func newRecordingContent() *recordingContent {
	return &recordingContent{objects: make(map[string]string)}
}

func (c *recordingContent) Put(_ context.Context, _ application.DocumentMeta, body io.Reader) (string, error) {
	if c.failPut != nil {
		return "", c.failPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	ref := uuid.NewString()
	c.mu.Lock()
	c.objects[ref] = string(data)
	c.mu.Unlock()
	return ref, nil
}

func (c *recordingContent) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[ref]
	if !ok {
		return nil, application.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (c *recordingContent) Delete(_ context.Context, ref string) error {
	c.mu.Lock()
	delete(c.objects, ref)
	c.mu.Unlock()
	return nil
}

func (c *recordingContent) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}

func TestDocumentServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))}, testfixtures.WithAdapter(adapter))
	svc := application.NewDocumentService(r.store, documents.NewBlobStore(adapter, 1<<20), nil)

	doc, err := svc.Upload(ctx, "c-1", application.DocumentMeta{Name: " programa.pdf ", MIMEType: "application/pdf"}, strings.NewReader("%PDF-1.4 programa"))
	require.NoError(t, err)
	assert.Equal(t, "programa.pdf", doc.Name)
	assert.Equal(t, int64(len("%PDF-1.4 programa")), doc.Size, "size is counted when not given")
	assert.NotEmpty(t, doc.ContentRef)

	c := mustCompetition(t, r.store, "c-1")
	require.Len(t, c.Documents, 1)
	assert.Equal(t, doc.ID, c.Documents[0].ID)

	meta, rc, err := svc.Open(ctx, "c-1", doc.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 programa", string(body))
	assert.Equal(t, "application/pdf", meta.MIMEType)

	require.NoError(t, svc.Delete(ctx, "c-1", doc.ID))
	assert.Empty(t, mustCompetition(t, r.store, "c-1").Documents)
	_, _, err = svc.Open(ctx, "c-1", doc.ID)
	assert.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "c-1", doc.ID), "deleting twice is a no-op")
}

func TestDocumentUploadIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("content is removed when the roster write fails", func(t *testing.T) {
		adapter := testfixtures.NewFailingAdapter(memory.New())
		r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))}, testfixtures.WithAdapter(adapter))
		content := newRecordingContent()
		svc := application.NewDocumentService(r.store, content, nil)

		adapter.FailWrites(persistence.KeyCompetitions)
		_, err := svc.Upload(ctx, "c-1", application.DocumentMeta{Name: "regulamento.pdf"}, strings.NewReader("conteúdo"))
		require.ErrorIs(t, err, testfixtures.ErrInjected)

		assert.Zero(t, content.len())
		assert.Empty(t, mustCompetition(t, r.store, "c-1").Documents)
	})

	t.Run("metadata is not attached when the content write fails", func(t *testing.T) {
		r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))})
		content := newRecordingContent()
		content.failPut = errors.New("disk full")
		svc := application.NewDocumentService(r.store, content, nil)

		_, err := svc.Upload(ctx, "c-1", application.DocumentMeta{Name: "regulamento.pdf"}, strings.NewReader("conteúdo"))
		require.Error(t, err)
		assert.Empty(t, mustCompetition(t, r.store, "c-1").Documents)
	})

	t.Run("unknown competition stores nothing", func(t *testing.T) {
		r := newRoster(t, nil)
		content := newRecordingContent()
		svc := application.NewDocumentService(r.store, content, nil)

		_, err := svc.Upload(ctx, "ghost", application.DocumentMeta{Name: "x.pdf"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, application.ErrNotFound)
		assert.Zero(t, content.len())
	})

	t.Run("name is required", func(t *testing.T) {
		r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))})
		svc := application.NewDocumentService(r.store, newRecordingContent(), nil)

		_, err := svc.Upload(ctx, "c-1", application.DocumentMeta{Name: "  "}, strings.NewReader("x"))
		var vErr *application.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestDocumentUploadRespectsBlobLimit(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))}, testfixtures.WithAdapter(adapter))
	svc := application.NewDocumentService(r.store, documents.NewBlobStore(adapter, 4), nil)

	_, err := svc.Upload(ctx, "c-1", application.DocumentMeta{Name: "grande.pdf"}, strings.NewReader("demasiado grande"))
	assert.ErrorIs(t, err, documents.ErrTooLarge)
	assert.Empty(t, mustCompetition(t, r.store, "c-1").Documents)
}

type linkingContent struct {
	*recordingContent
}

func (c linkingContent) DownloadURL(_ context.Context, ref string) (string, error) {
	return "https://bucket.example/" + ref + "?sig=1", nil
}

func TestDocumentServiceLink(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))})

	plain := application.NewDocumentService(r.store, newRecordingContent(), nil)
	doc, err := plain.Upload(ctx, "c-1", application.DocumentMeta{Name: "a.pdf"}, strings.NewReader("a"))
	require.NoError(t, err)
	_, ok, err := plain.Link(ctx, "c-1", doc.ID)
	require.NoError(t, err)
	assert.False(t, ok, "streaming stores have no direct links")

	linked := application.NewDocumentService(r.store, linkingContent{newRecordingContent()}, nil)
	doc, err = linked.Upload(ctx, "c-1", application.DocumentMeta{Name: "b.pdf"}, strings.NewReader("b"))
	require.NoError(t, err)
	url, ok, err := linked.Link(ctx, "c-1", doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://bucket.example/"+doc.ContentRef+"?sig=1", url)

	_, _, err = linked.Link(ctx, "c-1", "ghost")
	assert.ErrorIs(t, err, application.ErrNotFound)
}
