package application_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockAccountStore struct {
	accounts []model.Account
	nextID   int64
	addErr   error
	removed  []string
}

func (m *mockAccountStore) Add(_ context.Context, user, provider string, values []string) (int64, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.nextID++
	m.accounts = append(m.accounts, model.Account{
		ID:       m.nextID,
		User:     user,
		Provider: provider,
		Values:   values,
	})
	return m.nextID, nil
}

func (m *mockAccountStore) Get(_ context.Context, user, provider, identity string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.User == user && a.Provider == provider && a.Identity() == identity {
			return &a, nil
		}
	}
	return nil, driven.ErrNotFound
}

func (m *mockAccountStore) GetByID(_ context.Context, id int64) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %d: %w", id, driven.ErrNotFound)
}

func (m *mockAccountStore) ListByUser(_ context.Context, user string) ([]model.Account, error) {
	var out []model.Account
	for _, a := range m.accounts {
		if a.User == user {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAccountStore) RemoveUser(_ context.Context, user string) error {
	m.removed = append(m.removed, user)
	return nil
}

func (m *mockAccountStore) ListUsers(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var users []string
	for _, a := range m.accounts {
		if !seen[a.User] {
			seen[a.User] = true
			users = append(users, a.User)
		}
	}
	sort.Strings(users)
	return users, nil
}

type recordCall struct {
	AccountID int64
	Balance   int
	Expire    *time.Time
}

type mockHistoryStore struct {
	mu        sync.Mutex
	records   []recordCall
	recordErr error
	limits    []int
}

func (m *mockHistoryStore) RecordBalance(_ context.Context, accountID int64, balance int, expire *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, recordCall{AccountID: accountID, Balance: balance, Expire: expire})
	return nil
}

func (m *mockHistoryStore) LatestBalances(_ context.Context, _ string) ([]model.CategoryBalances, error) {
	return nil, nil
}

func (m *mockHistoryStore) History(_ context.Context, _ int64, limit int) ([]model.HistoryEntry, error) {
	m.limits = append(m.limits, limit)
	return nil, nil
}

type mockAdapter struct {
	fetch func(ctx context.Context, fields map[string]string, meta model.ProviderMeta) (model.BalanceResult, error)
}

func (m *mockAdapter) FetchBalance(ctx context.Context, _ driven.Browser, fields map[string]string, meta model.ProviderMeta) (model.BalanceResult, error) {
	return m.fetch(ctx, fields, meta)
}

type mockRegistry struct {
	adapters map[string]driven.BalanceAdapter
}

func (m *mockRegistry) Lookup(id string) (driven.BalanceAdapter, error) {
	a, ok := m.adapters[id]
	if !ok {
		return nil, fmt.Errorf("adapter %q: %w", id, driven.ErrAdapterNotFound)
	}
	return a, nil
}

type mockBrowser struct {
	closed bool
}

func (m *mockBrowser) NewPage(context.Context) (driven.Page, error) { return nil, nil }
func (m *mockBrowser) Close() error {
	m.closed = true
	return nil
}

type mockSettingStore struct {
	order  []string
	values map[string]model.Setting
	getErr error
}

func newMockSettingStore(settings ...model.Setting) *mockSettingStore {
	m := &mockSettingStore{values: map[string]model.Setting{}}
	_ = m.Seed(context.Background(), settings)
	return m
}

func (m *mockSettingStore) Seed(_ context.Context, settings []model.Setting) error {
	for _, s := range settings {
		if _, ok := m.values[s.Key]; ok {
			continue
		}
		m.order = append(m.order, s.Key)
		m.values[s.Key] = s
	}
	return nil
}

func (m *mockSettingStore) Get(_ context.Context, key string) (*model.Setting, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("setting %q: %w", key, driven.ErrNotFound)
	}
	return &s, nil
}

func (m *mockSettingStore) Set(_ context.Context, key, value string) error {
	s, ok := m.values[key]
	if !ok {
		return fmt.Errorf("setting %q: %w", key, driven.ErrNotFound)
	}
	s.Value = value
	m.values[key] = s
	return nil
}

func (m *mockSettingStore) List(_ context.Context) ([]model.Setting, error) {
	var out []model.Setting
	for _, k := range m.order {
		if s := m.values[k]; s.Visible() {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeCipher "seals" with its key as a prefix so a different key fails.
type fakeCipher struct {
	key string
}

func newFakeCipher(password string) (driven.Cipher, error) {
	if password == "" {
		return nil, fmt.Errorf("empty password")
	}
	return &fakeCipher{key: password}, nil
}

func (c *fakeCipher) Encrypt(plain string) (string, error) {
	return c.key + "|" + plain, nil
}

func (c *fakeCipher) Decrypt(token string) (string, error) {
	plain, ok := strings.CutPrefix(token, c.key+"|")
	if !ok {
		return "", driven.ErrInvalidCredential
	}
	return plain, nil
}

type mockNoteSource struct {
	note  *model.Note
	err   error
	calls []string
}

func (m *mockNoteSource) Latest(_ context.Context, blogURL string) (*model.Note, error) {
	m.calls = append(m.calls, blogURL)
	return m.note, m.err
}

type mockReleaseChecker struct {
	release *model.Release
	err     error
}

func (m *mockReleaseChecker) LatestRelease(context.Context) (*model.Release, error) {
	return m.release, m.err
}
