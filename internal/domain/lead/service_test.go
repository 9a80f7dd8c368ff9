package lead

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type MockBlobRemover struct {
	mock.Mock
}

func (m *MockBlobRemover) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func TestService_CreateValidatesNormalizedFields(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))
	ctx := context.Background()

	f := sampleFields()
	f.Phone = "+33 6 12 34 56 78"
	_, err := svc.Create(ctx, f)
	assert.ErrorIs(t, err, ErrInvalidPhone)

	f = sampleFields()
	f.RegistrationPlate = "AB123CD"
	_, err = svc.Create(ctx, f)
	assert.ErrorIs(t, err, ErrInvalidPlate)
}

func TestService_PublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	blobs := new(MockBlobRemover)
	svc := NewService(NewRepository(setupTestDB(t)), WithPublisher(pub), WithBlobRemover(blobs))
	ctx := context.Background()

	l, err := svc.Create(ctx, sampleFields())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, l.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = svc.AppendAttachment(ctx, l.ID, l.ID+"/1-a.jpg")
	require.NoError(t, err)
	_, err = svc.AppendAttachment(ctx, l.ID, l.ID+"/2-b.jpg")
	require.NoError(t, err)

	blobs.On("Delete", mock.Anything, l.ID+"/1-a.jpg").Return(errors.New("gone"))
	blobs.On("Delete", mock.Anything, l.ID+"/2-b.jpg").Return(nil)
	require.NoError(t, svc.Delete(ctx, l.ID))

	assert.Equal(t, []EventType{EventCreated, EventUpdated, EventUpdated, EventUpdated, EventDeleted}, pub.types())
	blobs.AssertExpectations(t)
}

func TestService_UpdateStatusRejectsUnknown(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))
	_, err := svc.UpdateStatus(context.Background(), "id", Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_Stats(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	seedLead(t, repo, func(l *Lead) { l.CreatedAt = now.Add(-time.Hour) })
	seedLead(t, repo, func(l *Lead) { l.CreatedAt = now.AddDate(0, 0, -8) })

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ThisWeek)
}

func TestService_Export(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	svc := NewService(repo)

	seedLead(t, repo, func(l *Lead) {
		l.CreatedAt = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
		l.Status = StatusContacted
	})

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), &buf, Filter{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\ufeffDate;Nom;Email;Téléphone;Type véhicule;Marque;Type vitrage;Localisation;Statut\n"))
	assert.Contains(t, out, "05/03/2026;M Jean Dupont;jean.dupont@example.fr;0612345678;RENAULT CLIO - BERLINE, 5 portes;RENAULT;vitrage;Marseille;Contacté")
}

func TestWriteCSV_QuotesSeparators(t *testing.T) {
	var buf bytes.Buffer
	l := Lead{Name: "Dupont; Jean", Status: StatusNew, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, WriteCSV(&buf, []Lead{l}, time.UTC))
	assert.Contains(t, buf.String(), `02/01/2026;"Dupont; Jean"`)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

	since, err := PeriodStart("today", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), since)

	since, err = PeriodStart("week", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), since)

	since, err = PeriodStart("month", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 15, 30, 0, 0, time.UTC), since)

	since, err = PeriodStart("all", now)
	require.NoError(t, err)
	assert.True(t, since.IsZero())

	_, err = PeriodStart("year", now)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "leads_topglass_2026-10-14.csv", ExportFilename(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)))
}
