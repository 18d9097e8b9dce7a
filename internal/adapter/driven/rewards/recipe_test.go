package rewards

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shilph/art/internal/catalog"
	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// fakePage scripts page contents by selector and records every call.
type fakePage struct {
	text   map[string]string
	texts  map[string][]string
	absent map[string]bool
	failOn map[string]error
	filled map[string]string
	calls  []string
	closed bool
}

func newFakePage() *fakePage {
	return &fakePage{
		text:   map[string]string{},
		texts:  map[string][]string{},
		absent: map[string]bool{},
		failOn: map[string]error{},
		filled: map[string]string{},
	}
}

func (p *fakePage) record(op, arg string) error {
	p.calls = append(p.calls, op+" "+arg)
	return p.failOn[arg]
}

func (p *fakePage) Navigate(_ context.Context, url string) error { return p.record("navigate", url) }
func (p *fakePage) WaitVisible(_ context.Context, sel string) error {
	return p.record("wait", sel)
}
func (p *fakePage) Click(_ context.Context, sel string) error { return p.record("click", sel) }
func (p *fakePage) Fill(_ context.Context, sel, value string) error {
	p.filled[sel] = value
	return p.record("fill", sel)
}
func (p *fakePage) Text(_ context.Context, sel string) (string, error) {
	if err := p.record("text", sel); err != nil {
		return "", err
	}
	return p.text[sel], nil
}
func (p *fakePage) Texts(_ context.Context, sel string) ([]string, error) {
	if err := p.record("texts", sel); err != nil {
		return nil, err
	}
	return p.texts[sel], nil
}
func (p *fakePage) Exists(_ context.Context, sel string) (bool, error) {
	return !p.absent[sel], p.record("exists", sel)
}
func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	page *fakePage
	err  error
}

func (b *fakeBrowser) NewPage(context.Context) (driven.Page, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.page, nil
}
func (b *fakeBrowser) Close() error { return nil }

type fakePrompter struct {
	answer string
	asked  []string
}

func (f *fakePrompter) Prompt(_ context.Context, message string) (string, error) {
	f.asked = append(f.asked, message)
	return f.answer, nil
}

func testRecipe() Recipe {
	return Recipe{
		ID: "test",
		Login: []Step{
			navigate("https://example.com/login"),
			fill("#user", "username"),
			fill("#pass", "password"),
			click("#submit"),
		},
		Balance: BalanceRule{
			URL:      "https://example.com/account",
			Selector: "#balance",
			Pattern:  regexp.MustCompile(`([\d,]+)\s+MILES`),
		},
		Logout: []Step{click("#logout")},
	}
}

var testFields = map[string]string{"username": "alice123", "password": "p@ss"}

func TestFetchBalance_Success(t *testing.T) {
	page := newFakePage()
	page.text["#balance"] = "You have 50,000 MILES AVAILABLE"

	a := NewAdapter(testRecipe(), nil)
	res, err := a.FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)

	assert.Equal(t, 50000, res.Balance)
	assert.Nil(t, res.ExpireDate)
	assert.Equal(t, "alice123", page.filled["#user"])
	assert.Equal(t, "p@ss", page.filled["#pass"])
	assert.True(t, page.closed)
	assert.Equal(t, []string{
		"navigate https://example.com/login",
		"fill #user",
		"fill #pass",
		"click #submit",
		"navigate https://example.com/account",
		"wait #balance",
		"text #balance",
		"click #logout",
	}, page.calls)
}

func TestFetchBalance_LogoutAndCloseOnLoginFailure(t *testing.T) {
	page := newFakePage()
	page.failOn["#submit"] = errors.New("element not visible")

	a := NewAdapter(testRecipe(), nil)
	_, err := a.FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login")

	assert.Equal(t, "click #logout", page.calls[len(page.calls)-1])
	assert.True(t, page.closed)
}

func TestFetchBalance_LogoutWhenBalanceUnreadable(t *testing.T) {
	page := newFakePage()
	page.text["#balance"] = "Service unavailable"

	a := NewAdapter(testRecipe(), nil)
	_, err := a.FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.Error(t, err)

	assert.Contains(t, page.calls, "click #logout")
	assert.True(t, page.closed)
}

func TestFetchBalance_LogoutAfterCancel(t *testing.T) {
	page := newFakePage()
	page.text["#balance"] = "1 MILES"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAdapter(testRecipe(), nil)
	_, _ = a.FetchBalance(ctx, &fakeBrowser{page: page}, testFields, model.ProviderMeta{})

	assert.Contains(t, page.calls, "click #logout")
}

func TestFetchBalance_OpenPageFails(t *testing.T) {
	a := NewAdapter(testRecipe(), nil)
	_, err := a.FetchBalance(context.Background(), &fakeBrowser{err: errors.New("no browser")}, testFields, model.ProviderMeta{})
	assert.Error(t, err)
}

func TestFetchBalance_MissingField(t *testing.T) {
	page := newFakePage()

	a := NewAdapter(testRecipe(), nil)
	_, err := a.FetchBalance(context.Background(), &fakeBrowser{page: page}, map[string]string{"username": "x"}, model.ProviderMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"password"`)
	assert.True(t, page.closed)
}

func TestFetchBalance_SumAcrossCards(t *testing.T) {
	r := testRecipe()
	r.Balance = BalanceRule{Selector: "div.points-balance", Pattern: regexp.MustCompile(`^\s*([\d,]+)`), Sum: true}

	page := newFakePage()
	page.texts["div.points-balance"] = []string{"12,000\npts", "3,500\npts", "0\npts"}

	res, err := NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	assert.Equal(t, 15500, res.Balance)
}

func TestFetchBalance_ClickIfPresent(t *testing.T) {
	r := testRecipe()
	r.Login = append([]Step{clickIfPresent("#popup")}, r.Login...)

	page := newFakePage()
	page.absent["#popup"] = true
	page.text["#balance"] = "7 MILES"

	_, err := NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	assert.NotContains(t, page.calls, "click #popup")
}

func TestFetchBalance_WhenGroup(t *testing.T) {
	r := testRecipe()
	r.Login = append(r.Login, when("#verify",
		click("#email-code"),
		prompt("#code", "Enter passcode:"),
		click("#confirm"),
	)...)

	t.Run("absent", func(t *testing.T) {
		page := newFakePage()
		page.absent["#verify"] = true
		page.text["#balance"] = "7 MILES"
		prompter := &fakePrompter{answer: "1"}

		_, err := NewAdapter(r, prompter).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
		require.NoError(t, err)
		assert.Empty(t, prompter.asked)
		assert.NotContains(t, page.calls, "click #email-code")
		assert.NotContains(t, page.calls, "click #confirm")
	})

	t.Run("present", func(t *testing.T) {
		page := newFakePage()
		page.text["#balance"] = "7 MILES"
		prompter := &fakePrompter{answer: "654321"}

		_, err := NewAdapter(r, prompter).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
		require.NoError(t, err)
		assert.Equal(t, "654321", page.filled["#code"])
		assert.Equal(t, []string{
			"exists #verify",
			"click #email-code",
			"fill #code",
			"click #confirm",
		}, page.calls[4:8])
	})
}

func TestFetchBalance_Prompt(t *testing.T) {
	r := testRecipe()
	r.Login = append(r.Login, prompt("#code", "Enter passcode:"))

	page := newFakePage()
	page.text["#balance"] = "7 MILES"
	prompter := &fakePrompter{answer: " 123456\n"}

	_, err := NewAdapter(r, prompter).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Enter passcode:"}, prompter.asked)
	assert.Equal(t, "123456", page.filled["#code"])

	_, err = NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: newFakePage()}, testFields, model.ProviderMeta{})
	assert.Error(t, err)
}

func TestFetchBalance_ExplicitExpiry(t *testing.T) {
	r := testRecipe()
	r.Expiry = ExpiryRule{
		Kind:     ExpiryExplicit,
		Selector: "#expire",
		Pattern:  regexp.MustCompile(`expire on\s+(?P<date>[A-Za-z]{3}\s+\d{1,2},\s+\d{4})`),
		Layout:   monDayYear,
		NeverIf:  "no miles expiration",
	}

	page := newFakePage()
	page.text["#balance"] = "10 MILES"
	page.text["#expire"] = "Your miles expire on Mar 5, 2027"

	res, err := NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	require.NotNil(t, res.ExpireDate)
	assert.Equal(t, "2027-03-05", res.ExpireDate.Format(model.DateLayout))

	page = newFakePage()
	page.text["#balance"] = "10 MILES"
	page.text["#expire"] = "You have no miles expiration"

	res, err = NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	assert.Nil(t, res.ExpireDate)

	page = newFakePage()
	page.text["#balance"] = "10 MILES"
	page.absent["#expire"] = true

	res, err = NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{})
	require.NoError(t, err)
	assert.Nil(t, res.ExpireDate)
}

func TestFetchBalance_LastActivityExpiry(t *testing.T) {
	r := testRecipe()
	r.Expiry = ExpiryRule{
		Kind:     ExpiryLastActivity,
		Selector: ".activity",
		Pattern:  regexp.MustCompile(`(?P<date>[A-Za-z]{3} \d{1,2}, \d{4}).*?Points\s+(?P<points>[-\d,]+)`),
		Layout:   monDayYear,
	}

	page := newFakePage()
	page.text["#balance"] = "10 MILES"
	page.texts[".activity"] = []string{
		"Feb 20, 2026 Profile update Points 0",
		"Jan 31, 2026 Stay Points -1,000",
		"Dec 1, 2025 Stay Points 2,500",
	}

	res, err := NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{ExpireAfterMonths: 1})
	require.NoError(t, err)
	require.NotNil(t, res.ExpireDate)
	assert.Equal(t, "2026-02-28", res.ExpireDate.Format(model.DateLayout))

	res, err = NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{ExpireAfterMonths: 0})
	require.NoError(t, err)
	assert.Nil(t, res.ExpireDate)

	page.texts[".activity"] = []string{"Feb 20, 2026 Points 0"}
	res, err = NewAdapter(r, nil).FetchBalance(context.Background(), &fakeBrowser{page: page}, testFields, model.ProviderMeta{ExpireAfterMonths: 24})
	require.NoError(t, err)
	assert.Nil(t, res.ExpireDate)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in     string
		months int
		want   string
	}{
		{"2026-01-15", 24, "2028-01-15"},
		{"2026-01-31", 1, "2026-02-28"},
		{"2027-12-31", 2, "2028-02-29"},
		{"2026-03-31", 12, "2027-03-31"},
		{"2026-05-31", 120, "2036-05-31"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s+%d", tt.in, tt.months), func(t *testing.T) {
			in, err := time.Parse(model.DateLayout, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addMonths(in, tt.months).Format(model.DateLayout))
		})
	}
}

func TestExtractPoints(t *testing.T) {
	n, err := extractPoints("Balance: 1,234,567 pts", nil)
	require.NoError(t, err)
	assert.Equal(t, 1234567, n)

	_, err = extractPoints("no digits", nil)
	assert.Error(t, err)

	_, err = extractPoints("-5 MILES", regexp.MustCompile(`(-?\d+) MILES`))
	assert.Error(t, err)
}

func TestRecipes_Valid(t *testing.T) {
	for _, r := range Recipes() {
		assert.NoError(t, r.Validate(), r.ID)
	}
}

func TestRegistry_CoversCatalog(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	c, err := catalog.Load()
	require.NoError(t, err)
	assert.NoError(t, c.Validate(reg.Has))
	assert.Len(t, reg.IDs(), 14)
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	a, err := reg.Lookup("delta")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = reg.Lookup("virgin_atlantic")
	assert.ErrorIs(t, err, driven.ErrAdapterNotFound)

	assert.Error(t, reg.Register("delta", a))
}
