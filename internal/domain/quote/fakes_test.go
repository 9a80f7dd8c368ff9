package quote

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"topglass/internal/domain"
)

const testLeadID = "11111111-1111-4111-8111-111111111111"

/* ==================== MOCKS ==================== */

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Insert(ctx context.Context, fields domain.LeadFields) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, summary domain.LeadSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

type fakeRateLimiter struct {
	decision domain.RateLimitDecision
	err      error
	calls    []string
}

func (f *fakeRateLimiter) Check(_ context.Context, endpoint string) (domain.RateLimitDecision, error) {
	f.calls = append(f.calls, endpoint)
	return f.decision, f.err
}

// fakeUploader fails for the file names listed in failOn and records call order.
type fakeUploader struct {
	mu     sync.Mutex
	failOn map[string]bool
	calls  []string
}

func (f *fakeUploader) Upload(_ context.Context, leadID string, file BinaryFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, file.Name)
	if f.failOn[file.Name] {
		return "", errors.New("storage unavailable")
	}
	return leadID + "/" + file.Name, nil
}

type codedTestError struct {
	msg, code, details string
}

func (e codedTestError) Error() string   { return e.msg }
func (e codedTestError) Code() string    { return e.code }
func (e codedTestError) Details() string { return e.details }

func allowAll() *fakeRateLimiter {
	return &fakeRateLimiter{decision: domain.RateLimitDecision{Allowed: true, Remaining: 4}}
}

func photo(name string) BinaryFile {
	return BinaryFile{Name: name, ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
}

func fixedID() string { return testLeadID }
