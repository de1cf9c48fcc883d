package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crmsync/internal/client/crm"
	"crmsync/internal/models"
)

type stubRefresher struct {
	token  string
	expiry time.Time
	err    error
	calls  int
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	s.calls++
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return s.token, s.expiry, nil
}

// typedSearch serves pages per object type and can fail a single type.
type typedSearch struct {
	pages map[string][]*crm.SearchPage
	fail  map[string]error
	seen  []string
	idx   map[string]int
}

func (s *typedSearch) SearchObjects(ctx context.Context, token, objectType string, req *crm.SearchRequest) (*crm.SearchPage, error) {
	s.seen = append(s.seen, objectType)
	if err := s.fail[objectType]; err != nil {
		return nil, err
	}
	if s.idx == nil {
		s.idx = map[string]int{}
	}
	i := s.idx[objectType]
	s.idx[objectType]++
	pages := s.pages[objectType]
	if i >= len(pages) {
		return &crm.SearchPage{}, nil
	}
	return pages[i], nil
}

type memoryStore struct {
	domain  *models.Domain
	saves   int
	reports []*models.SyncRunReport
}

func (m *memoryStore) Find(ctx context.Context) (*models.Domain, error) { return m.domain, nil }
func (m *memoryStore) Save(ctx context.Context, domain *models.Domain) error {
	m.saves++
	return nil
}
func (m *memoryStore) SaveReport(ctx context.Context, report *models.SyncRunReport) error {
	m.reports = append(m.reports, report)
	return nil
}
func (m *memoryStore) ListReports(ctx context.Context, limit int) ([]models.SyncRunReport, error) {
	return nil, nil
}

func newTestRunner(search SearchClient, refresher TokenRefresher, store *memoryStore, capture *captureSink) *AccountSyncRunner {
	return &AccountSyncRunner{
		Refresher:    refresher,
		Search:       search,
		Associations: &stubAssociations{},
		Queue:        NewEventQueue(capture, 2000, nil),
		Checkpoint:   StoreCheckpointer{Store: store},
		Reports:      store,
		Settings:     Settings{RetryBaseDelay: time.Millisecond},
		Now:          func() time.Time { return time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC) },
	}
}

func TestRunnerRefreshFailureAbortsAccount(t *testing.T) {
	store := &memoryStore{}
	search := &typedSearch{}
	runner := newTestRunner(search, &stubRefresher{err: errors.New("bad refresh token")}, store, &captureSink{})
	defer runner.Queue.Close()

	acct := &models.Account{Key: "acme", RefreshToken: "dead"}
	err := runner.RunAccount(context.Background(), &models.Domain{}, acct, "run-1")

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, "acme", runErr.AccountKey)
	require.Equal(t, "refresh credentials", runErr.Operation)
	var refreshErr *CredentialRefreshError
	require.ErrorAs(t, err, &refreshErr)
	require.Empty(t, search.seen)
}

func TestRunnerRunsEntitiesInOrder(t *testing.T) {
	expiry := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	search := &typedSearch{}
	runner := newTestRunner(search, &stubRefresher{token: "fresh", expiry: expiry}, store, &captureSink{})
	defer runner.Queue.Close()

	acct := &models.Account{Key: "acme", RefreshToken: "refresh"}
	err := runner.RunAccount(context.Background(), &models.Domain{Accounts: []*models.Account{acct}}, acct, "run-1")
	require.NoError(t, err)

	require.Equal(t, []string{"contacts", "companies", "meetings"}, search.seen)
	require.Equal(t, "fresh", acct.AccessToken)
	require.Equal(t, expiry, acct.AccessTokenExpiry)
	for _, entity := range []string{EntityContacts, EntityCompanies, EntityMeetings} {
		require.False(t, acct.Watermark(entity).IsZero(), entity)
	}
	// One checkpoint per completed entity job plus the end-of-run one.
	require.Equal(t, 4, store.saves)
	require.Len(t, store.reports, 3)
	for _, report := range store.reports {
		require.Equal(t, "run-1", report.RunID)
		require.Nil(t, report.LastError)
	}
}

func TestRunnerKeepsPartialProgress(t *testing.T) {
	// Relative to the wall clock: the runner's retrier must exhaust its
	// budget on the failing entity, not trip the expiry check.
	expiry := time.Now().Add(time.Hour)
	store := &memoryStore{}
	search := &typedSearch{fail: map[string]error{"companies": errors.New("provider down")}}
	runner := newTestRunner(search, &stubRefresher{token: "fresh", expiry: expiry}, store, &captureSink{})
	defer runner.Queue.Close()

	acct := &models.Account{Key: "acme", RefreshToken: "refresh"}
	err := runner.RunAccount(context.Background(), &models.Domain{Accounts: []*models.Account{acct}}, acct, "run-1")

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, "sync companies", runErr.Operation)
	var exhausted *FetchExhaustedError
	require.ErrorAs(t, err, &exhausted)

	// Contacts completed before the failure and keep their watermark;
	// meetings never ran.
	require.False(t, acct.Watermark(EntityContacts).IsZero())
	require.True(t, acct.Watermark(EntityCompanies).IsZero())
	require.True(t, acct.Watermark(EntityMeetings).IsZero())

	require.Len(t, store.reports, 2)
	require.NotNil(t, store.reports[1].LastError)
}
