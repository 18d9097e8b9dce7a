package application_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/catalog"
	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

type refreshFixture struct {
	accounts *mockAccountStore
	history  *mockHistoryStore
	registry *mockRegistry
	browser  *mockBrowser
	opens    *int
	svc      *application.RefreshService
}

func newRefreshFixture(t *testing.T, accounts ...model.Account) *refreshFixture {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	f := &refreshFixture{
		accounts: &mockAccountStore{accounts: accounts, nextID: int64(len(accounts))},
		history:  &mockHistoryStore{},
		registry: &mockRegistry{adapters: map[string]driven.BalanceAdapter{}},
		browser:  &mockBrowser{},
		opens:    new(int),
	}
	sessions := application.NewSessionProvider(func(context.Context) (driven.Browser, error) {
		*f.opens++
		return f.browser, nil
	})
	f.svc = application.NewRefreshService(cat, f.accounts, f.history, f.registry, sessions)
	return f
}

func deltaAccount(id int64, user string) model.Account {
	return model.Account{
		ID:       id,
		User:     user,
		Provider: "Delta Skymiles",
		Values:   []string{"alice123", "p@ss"},
		Fields:   map[string]string{"username": "alice123", "password": "p@ss"},
	}
}

func fixedBalance(balance int, expire *time.Time) *mockAdapter {
	return &mockAdapter{fetch: func(context.Context, map[string]string, model.ProviderMeta) (model.BalanceResult, error) {
		return model.BalanceResult{Balance: balance, ExpireDate: expire}, nil
	}}
}

func TestRefresh_RecordsBalance(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"))

	var gotFields map[string]string
	f.registry.adapters["delta"] = &mockAdapter{fetch: func(_ context.Context, fields map[string]string, _ model.ProviderMeta) (model.BalanceResult, error) {
		gotFields = fields
		return model.BalanceResult{Balance: 50000}, nil
	}}

	out, err := f.svc.Refresh(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, 50000, out.Balance)
	assert.Equal(t, "alice123", out.Identity)
	assert.Equal(t, "p@ss", gotFields["password"])

	require.Len(t, f.history.records, 1)
	assert.Equal(t, recordCall{AccountID: 1, Balance: 50000}, f.history.records[0])
}

func TestRefresh_PassesProviderMeta(t *testing.T) {
	acct := deltaAccount(1, "Alice")
	acct.Provider = "Marriott Bonvoy"
	f := newRefreshFixture(t, acct)

	var gotMeta model.ProviderMeta
	f.registry.adapters["marriott"] = &mockAdapter{fetch: func(_ context.Context, _ map[string]string, meta model.ProviderMeta) (model.BalanceResult, error) {
		gotMeta = meta
		return model.BalanceResult{Balance: 1}, nil
	}}

	_, err := f.svc.Refresh(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 24, gotMeta.ExpireAfterMonths)
}

func TestRefresh_ScrapeFailureWritesNothing(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"))
	f.registry.adapters["delta"] = &mockAdapter{fetch: func(context.Context, map[string]string, model.ProviderMeta) (model.BalanceResult, error) {
		return model.BalanceResult{}, errors.New("login rejected")
	}}

	out, err := f.svc.Refresh(context.Background(), 1)
	require.ErrorIs(t, err, driven.ErrScrapeFailed)
	assert.Contains(t, err.Error(), "login rejected")
	assert.False(t, out.OK())
	assert.Empty(t, f.history.records)
}

func TestRefresh_NegativeBalanceRejected(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"))
	f.registry.adapters["delta"] = fixedBalance(-1, nil)

	_, err := f.svc.Refresh(context.Background(), 1)
	assert.ErrorIs(t, err, driven.ErrScrapeFailed)
	assert.ErrorIs(t, err, driven.ErrInvalidBalance)
	assert.Empty(t, f.history.records)
}

func TestRefresh_AdapterNotFound(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"))

	_, err := f.svc.Refresh(context.Background(), 1)
	assert.ErrorIs(t, err, driven.ErrAdapterNotFound)
	assert.Zero(t, *f.opens)
}

func TestRefresh_UnknownAccount(t *testing.T) {
	f := newRefreshFixture(t)

	_, err := f.svc.Refresh(context.Background(), 42)
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestRefresh_BrowserStartFailure(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	accounts := &mockAccountStore{accounts: []model.Account{deltaAccount(1, "Alice")}}
	registry := &mockRegistry{adapters: map[string]driven.BalanceAdapter{"delta": fixedBalance(1, nil)}}
	sessions := application.NewSessionProvider(func(context.Context) (driven.Browser, error) {
		return nil, errors.New("chrome not found")
	})
	svc := application.NewRefreshService(cat, accounts, &mockHistoryStore{}, registry, sessions)

	_, err = svc.Refresh(context.Background(), 1)
	assert.ErrorIs(t, err, driven.ErrScrapeFailed)
}

func TestRefreshUser_FailureDoesNotAbortBatch(t *testing.T) {
	united := deltaAccount(2, "Alice")
	united.Provider = "United MileagePlus"
	expire := time.Date(2028, 1, 1, 0, 0, 0, 0, time.Local)

	f := newRefreshFixture(t, deltaAccount(1, "Alice"), united, deltaAccount(3, "Bob"))
	f.registry.adapters["delta"] = &mockAdapter{fetch: func(context.Context, map[string]string, model.ProviderMeta) (model.BalanceResult, error) {
		return model.BalanceResult{}, errors.New("unexpected layout")
	}}
	f.registry.adapters["ua"] = fixedBalance(1200, &expire)

	report, err := f.svc.RefreshUser(context.Background(), "Alice")
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Outcomes[0].Err, driven.ErrScrapeFailed)
	assert.True(t, report.Outcomes[1].OK())
	assert.Equal(t, 1200, report.Outcomes[1].Balance)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, int64(2), f.history.records[0].AccountID)
	assert.Equal(t, &expire, f.history.records[0].Expire)

	assert.Equal(t, 1, *f.opens, "session is opened once and reused")
}

func TestRefreshUser_UnknownUser(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"))

	_, err := f.svc.RefreshUser(context.Background(), "Carol")
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestRefreshUser_CancelledContextSkipsRemaining(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"), deltaAccount(2, "Alice"))

	ctx, cancel := context.WithCancel(context.Background())
	f.registry.adapters["delta"] = &mockAdapter{fetch: func(context.Context, map[string]string, model.ProviderMeta) (model.BalanceResult, error) {
		cancel()
		return model.BalanceResult{Balance: 5}, nil
	}}

	report, err := f.svc.RefreshUser(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.Outcomes[0].OK())
	assert.ErrorIs(t, report.Outcomes[1].Err, context.Canceled)
}

func TestRefresh_Serialized(t *testing.T) {
	f := newRefreshFixture(t, deltaAccount(1, "Alice"), deltaAccount(2, "Alice"))

	var running, maxRunning atomic.Int32
	f.registry.adapters["delta"] = &mockAdapter{fetch: func(context.Context, map[string]string, model.ProviderMeta) (model.BalanceResult, error) {
		n := running.Add(1)
		for {
			cur := maxRunning.Load()
			if n <= cur || maxRunning.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return model.BalanceResult{Balance: 1}, nil
	}}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Refresh(context.Background(), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning.Load())
}
