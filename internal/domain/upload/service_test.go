package upload

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"topglass/internal/domain"
	"topglass/internal/domain/lead"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type fixture struct {
	service *Service
	leads   *lead.Service
	storage *DiskStorage
	repo    Repository
	leadID  string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:upload_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&lead.Lead{}, &Upload{}))
	return db
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()
	db := setupTestDB(t)
	leads := lead.NewService(lead.NewRepository(db))
	storage := NewDiskStorage(t.TempDir())
	repo := NewRepository(db)

	svc := NewService(storage, repo, leads, maxBytes, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	svc.suffix = func() string { return "abc123" }

	id := uuid.NewString()
	_, err := leads.Create(context.Background(), domain.LeadFields{
		ID:                id,
		VehicleType:       "PEUGEOT 208 - BERLINE, 5 portes",
		GlassType:         domain.ServiceGlazing,
		VehicleBrand:      "PEUGEOT",
		Location:          "Marseille",
		Name:              "Mme Claire Martin",
		Phone:             "0612345678",
		Email:             "claire.martin@example.fr",
		RegistrationPlate: "AB-123-CD",
	})
	require.NoError(t, err)
	return &fixture{service: svc, leads: leads, storage: storage, repo: repo, leadID: id}
}

func pngInput(leadID string) Input {
	return Input{
		LeadID:      leadID,
		Source:      SourcePublic,
		Name:        "Photo.PNG",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Body:        bytes.NewReader(pngBytes),
	}
}

func TestService_UploadAppendsAttachment(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	u, err := f.service.Upload(ctx, pngInput(f.leadID))
	require.NoError(t, err)
	assert.Equal(t, f.leadID+"/1700000000000-abc123.png", u.Path)
	assert.Equal(t, "image/png", u.MimeType)
	assert.EqualValues(t, len(pngBytes), u.Size)

	l, err := f.leads.GetByID(ctx, f.leadID)
	require.NoError(t, err)
	assert.Equal(t, []string{u.Path}, l.Attachments)

	meta, err := f.repo.GetByPath(ctx, u.Path)
	require.NoError(t, err)
	assert.Equal(t, "Photo.PNG", meta.OriginalName)

	rc, _, contentType, err := f.service.Open(ctx, u.Path)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "image/png", contentType)
}

func TestService_UploadValidation(t *testing.T) {
	f := newFixture(t, 1024)

	tests := []struct {
		name   string
		mutate func(in *Input)
		want   error
	}{
		{"bad lead id", func(in *Input) { in.LeadID = "not-a-uuid" }, ErrInvalidLeadID},
		{"empty", func(in *Input) { in.Size = 0 }, ErrEmptyFile},
		{"too large", func(in *Input) { in.Size = 2048 }, ErrFileTooLarge},
		{"extension", func(in *Input) { in.Name = "photo.exe" }, ErrInvalidExtension},
		{"no extension", func(in *Input) { in.Name = "photo" }, ErrInvalidExtension},
		{"pdf from public", func(in *Input) { in.Name = "devis.pdf" }, ErrInvalidExtension},
		{"declared mime", func(in *Input) { in.ContentType = "text/html" }, ErrInvalidMimeType},
		{"sniffed mime", func(in *Input) {
			in.ContentType = ""
			in.Body = strings.NewReader("<html><body>hi</body></html>")
		}, ErrInvalidMimeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pngInput(f.leadID)
			tt.mutate(&in)
			_, err := f.service.Upload(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	l, err := f.leads.GetByID(context.Background(), f.leadID)
	require.NoError(t, err)
	assert.Empty(t, l.Attachments)
}

func TestService_UploadBodyLargerThanDeclared(t *testing.T) {
	f := newFixture(t, 100)
	in := pngInput(f.leadID)
	in.Size = 10
	in.Body = bytes.NewReader(append(pngBytes, bytes.Repeat([]byte{1}, 200)...))

	_, err := f.service.Upload(context.Background(), in)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, _, err = f.storage.Open(context.Background(), f.leadID+"/1700000000000-abc123.png")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestService_UploadSniffsWhenUndeclared(t *testing.T) {
	f := newFixture(t, 0)

	in := pngInput(f.leadID)
	in.ContentType = "application/octet-stream"
	u, err := f.service.Upload(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.MimeType)

	// HEIC cannot be sniffed; the extension decides
	heic := Input{LeadID: f.leadID, Source: SourcePublic, Name: "IMG_0001.HEIC", Size: 4, Body: strings.NewReader("\x00\x00\x00\x18")}
	f.service.suffix = func() string { return "def456" }
	u, err = f.service.Upload(context.Background(), heic)
	require.NoError(t, err)
	assert.Equal(t, "image/heic", u.MimeType)
}

func TestService_AdminAcceptsPDF(t *testing.T) {
	f := newFixture(t, 0)
	pdf := []byte("%PDF-1.4 test document")

	u, err := f.service.Upload(context.Background(), Input{
		LeadID: f.leadID, Source: SourceAdmin, Name: "carte-grise.pdf",
		ContentType: "application/pdf", Size: int64(len(pdf)), Body: bytes.NewReader(pdf),
	})
	require.NoError(t, err)
	assert.Equal(t, f.leadID+"/1700000000000-abc123.pdf", u.Path)
}

func TestService_UploadUnknownLeadRollsBack(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	missing := uuid.NewString()

	_, err := f.service.Upload(ctx, pngInput(missing))
	assert.ErrorIs(t, err, lead.ErrLeadNotFound)

	p := missing + "/1700000000000-abc123.png"
	_, _, err = f.storage.Open(ctx, p)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = f.repo.GetByPath(ctx, p)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestService_DetachAndDelete(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	u, err := f.service.Upload(ctx, pngInput(f.leadID))
	require.NoError(t, err)

	_, err = f.service.Detach(ctx, f.leadID, "other/path.png")
	assert.ErrorIs(t, err, lead.ErrAttachmentNotFound)

	l, err := f.service.Detach(ctx, f.leadID, u.Path)
	require.NoError(t, err)
	assert.Empty(t, l.Attachments)

	_, _, err = f.storage.Open(ctx, u.Path)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = f.repo.GetByPath(ctx, u.Path)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestService_LeadDeleteRemovesBlobs(t *testing.T) {
	db := setupTestDB(t)
	storage := NewDiskStorage(t.TempDir())
	repo := NewRepository(db)
	leads := lead.NewService(lead.NewRepository(db), lead.WithBlobRemover(NewRemover(storage, repo)))
	svc := NewService(storage, repo, leads, 0, nil)

	id := uuid.NewString()
	_, err := leads.Create(context.Background(), domain.LeadFields{
		ID: id, VehicleType: "AUDI A3 - BERLINE, 5 portes", GlassType: domain.ServiceBodywork, VehicleBrand: "AUDI",
		Location: "Nice", Name: "M Paul Bernard", Phone: "0612345678", Email: "paul@example.fr", RegistrationPlate: "AB-123-CD",
	})
	require.NoError(t, err)

	u, err := svc.Upload(context.Background(), pngInput(id))
	require.NoError(t, err)

	require.NoError(t, leads.Delete(context.Background(), id))
	_, _, err = storage.Open(context.Background(), u.Path)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = repo.GetByPath(context.Background(), u.Path)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}
