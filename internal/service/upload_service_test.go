package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/storage"
)

type memAttachments struct {
	items map[string]*models.Attachment
	err   error
}

func (m *memAttachments) Create(ctx context.Context, attachment *models.Attachment) error {
	if m.err != nil {
		return m.err
	}
	attachment.ID = fmt.Sprintf("att-%d", len(m.items)+1)
	m.items[attachment.ID] = attachment
	return nil
}

func (m *memAttachments) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func newUploadFixture(t *testing.T) (*UploadService, *memAttachments, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	attachments := &memAttachments{items: map[string]*models.Attachment{}}
	svc := NewUploadService(UploadServiceParams{
		Files:       files,
		Attachments: attachments,
		Signer:      storage.NewSignedURLSigner("secret", time.Minute),
		Audit:       &auditStub{},
		Config: UploadConfig{
			MaxFileSize:  1024,
			MaxFormSize:  1500,
			AllowedMIMEs: []string{"application/pdf", "image/png"},
			DownloadBase: "/api/v1/uploads/",
		},
	})
	return svc, attachments, files
}

func TestUploadServiceStoresAndServesFiles(t *testing.T) {
	svc, attachments, files := newUploadFixture(t)
	ctx := context.Background()
	ref := "3c2b1a0f-9e8d-4c7b-8a69-5f4e3d2c1b0a"

	saved, err := svc.Upload(ctx, interventionActor(), "Occurrence", &ref, []UploadFile{
		{FileName: "laudo.PDF", ContentType: "application/pdf", Size: 5, Content: strings.NewReader("%PDF-")},
		{FileName: "foto.png", ContentType: "image/png; charset=binary", Size: 3, Content: bytes.NewReader([]byte{1, 2, 3})},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, models.AttachmentScopeOccurrence, saved[0].Scope)
	assert.Equal(t, "image/png", saved[1].MimeType)
	assert.True(t, strings.HasPrefix(saved[0].DownloadURL, "/api/v1/uploads/att-1."))

	stored := attachments.items["att-1"]
	assert.True(t, strings.HasPrefix(stored.Path, testSchoolID+"/"))
	assert.True(t, strings.HasSuffix(stored.Path, ".pdf"))
	names, err := files.List()
	require.NoError(t, err)
	assert.Len(t, names, 2)

	token := strings.TrimPrefix(saved[0].DownloadURL, "/api/v1/uploads/")
	attachment, body, err := svc.Open(ctx, token)
	require.NoError(t, err)
	defer body.Close()
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(content))
	assert.Equal(t, "laudo.PDF", attachment.FileName)

	_, _, err = svc.Open(ctx, token+"x")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUploadServiceRejectsBeforeWriting(t *testing.T) {
	svc, _, files := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, interventionActor(), "", nil, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upload(ctx, interventionActor(), "", nil, []UploadFile{
		{FileName: "ok.pdf", ContentType: "application/pdf", Size: 1, Content: strings.NewReader("a")},
		{FileName: "x.exe", ContentType: "application/x-msdownload", Size: 1, Content: strings.NewReader("b")},
	})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedMedia)

	_, err = svc.Upload(ctx, interventionActor(), "", nil, []UploadFile{
		{FileName: "big.pdf", ContentType: "application/pdf", Size: 2048, Content: strings.NewReader("a")},
	})
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = svc.Upload(ctx, interventionActor(), "", nil, []UploadFile{
		{FileName: "a.pdf", ContentType: "application/pdf", Size: 1000, Content: strings.NewReader("a")},
		{FileName: "b.pdf", ContentType: "application/pdf", Size: 1000, Content: strings.NewReader("b")},
	})
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = svc.Upload(ctx, interventionActor(), "studio", nil, []UploadFile{
		{FileName: "a.pdf", ContentType: "application/pdf", Size: 1, Content: strings.NewReader("a")},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	names, err := files.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUploadServiceStreamLimitAndRowFailure(t *testing.T) {
	svc, attachments, files := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, interventionActor(), "", nil, []UploadFile{
		{FileName: "lie.pdf", ContentType: "application/pdf", Size: 10, Content: strings.NewReader(strings.Repeat("a", 2000))},
	})
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	attachments.err = sql.ErrConnDone
	_, err = svc.Upload(ctx, interventionActor(), "", nil, []UploadFile{
		{FileName: "a.pdf", ContentType: "application/pdf", Size: 1, Content: strings.NewReader("a")},
	})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	names, err := files.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
