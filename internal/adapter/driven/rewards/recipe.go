// Package rewards implements the provider adapter contract. Every provider is
// a declarative Recipe run by the same engine against a driven.Page, so login
// flows, balance extraction and cleanup behave the same way everywhere.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Action is the kind of a recipe step.
type Action int

const (
	ActionNavigate Action = iota
	ActionWaitVisible
	ActionClick
	// ActionClickIfPresent clicks only when the selector currently matches.
	ActionClickIfPresent
	// ActionFill types an account field into the selector.
	ActionFill
	// ActionPrompt asks the operator for a value and types it into the selector.
	ActionPrompt
)

// Step is one page interaction of a login or logout flow.
type Step struct {
	Action   Action
	URL      string
	Selector string
	Field    string
	Message  string
	// When guards the step: consecutive steps sharing the same When run only
	// if that selector matched before the first of them.
	When string
}

func navigate(url string) Step { return Step{Action: ActionNavigate, URL: url} }
func wait(sel string) Step { return Step{Action: ActionWaitVisible, Selector: sel} }
func click(sel string) Step { return Step{Action: ActionClick, Selector: sel} }
func clickIfPresent(sel string) Step { return Step{Action: ActionClickIfPresent, Selector: sel} }
func fill(sel, field string) Step { return Step{Action: ActionFill, Selector: sel, Field: field} }
func prompt(sel, message string) Step { return Step{Action: ActionPrompt, Selector: sel, Message: message} }

// when makes steps a group that only runs if sel is on the page.
func when(sel string, steps ...Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		s.When = sel
		out[i] = s
	}
	return out
}

// BalanceRule locates the balance on the page.
type BalanceRule struct {
	// URL is opened before reading when set.
	URL      string
	Selector string
	// Pattern's first submatch holds the number. Nil uses the whole text.
	Pattern *regexp.Regexp
	// Sum adds up the balance of every matching element (one per card).
	Sum bool
}

// ExpiryKind selects how the expiration date is obtained.
type ExpiryKind int

const (
	// ExpiryNone reports no expiration.
	ExpiryNone ExpiryKind = iota
	// ExpiryExplicit reads a date printed on the page.
	ExpiryExplicit
	// ExpiryLastActivity adds ExpireAfterMonths to the newest activity
	// whose point change is not zero.
	ExpiryLastActivity
)

// ExpiryRule locates the expiration date, or the activity it derives from.
type ExpiryRule struct {
	Kind     ExpiryKind
	URL      string
	Selector string
	// Pattern has a "date" group, and for ExpiryLastActivity a "points" group.
	Pattern *regexp.Regexp
	// Layout parses the "date" group.
	Layout string
	// NeverIf marks text that means the balance does not expire.
	NeverIf string
}

// Recipe is the complete scraping description of one provider.
type Recipe struct {
	ID      string
	Login   []Step
	Balance BalanceRule
	Expiry  ExpiryRule
	Logout  []Step
}

// Validate checks that the recipe's patterns expose the groups the engine reads.
func (r Recipe) Validate() error {
	if r.ID == "" {
		return errors.New("recipe without id")
	}
	if r.Balance.Selector == "" {
		return fmt.Errorf("recipe %s: balance selector is required", r.ID)
	}
	if r.Balance.Pattern != nil && r.Balance.Pattern.NumSubexp() < 1 {
		return fmt.Errorf("recipe %s: balance pattern needs a capture group", r.ID)
	}

	switch r.Expiry.Kind {
	case ExpiryNone:
	case ExpiryExplicit, ExpiryLastActivity:
		if r.Expiry.Selector == "" || r.Expiry.Pattern == nil || r.Expiry.Layout == "" {
			return fmt.Errorf("recipe %s: expiry needs selector, pattern and layout", r.ID)
		}
		if r.Expiry.Pattern.SubexpIndex("date") < 0 {
			return fmt.Errorf("recipe %s: expiry pattern needs a date group", r.ID)
		}
		if r.Expiry.Kind == ExpiryLastActivity && r.Expiry.Pattern.SubexpIndex("points") < 0 {
			return fmt.Errorf("recipe %s: activity pattern needs a points group", r.ID)
		}
	default:
		return fmt.Errorf("recipe %s: unknown expiry kind %d", r.ID, r.Expiry.Kind)
	}

	for _, s := range append(append([]Step{}, r.Login...), r.Logout...) {
		if s.Action == ActionNavigate && s.URL == "" {
			return fmt.Errorf("recipe %s: navigate step without url", r.ID)
		}
		if s.Action != ActionNavigate && s.Selector == "" {
			return fmt.Errorf("recipe %s: step without selector", r.ID)
		}
		if s.Action == ActionFill && s.Field == "" {
			return fmt.Errorf("recipe %s: fill step without field", r.ID)
		}
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ driven.BalanceAdapter = (*Adapter)(nil)

// Adapter runs one Recipe.
type Adapter struct {
	recipe   Recipe
	prompter driven.Prompter
}

// NewAdapter creates an Adapter for recipe. prompter may be nil for recipes
// without prompt steps.
func NewAdapter(recipe Recipe, prompter driven.Prompter) *Adapter {
	return &Adapter{recipe: recipe, prompter: prompter}
}

// FetchBalance opens a page, logs in, reads balance and expiration, then logs
// out and closes the page. Logout and close run on every path once the page
// is open.
func (a *Adapter) FetchBalance(ctx context.Context, browser driven.Browser, fields map[string]string, meta model.ProviderMeta) (model.BalanceResult, error) {
	id := a.recipe.ID

	page, err := browser.NewPage(ctx)
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%s: open page: %w", id, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Warn("close page failed", "adapter", id, "error", err)
		}
	}()
	defer a.logout(ctx, page)

	if err := a.runSteps(ctx, page, a.recipe.Login, fields); err != nil {
		return model.BalanceResult{}, fmt.Errorf("%s: login: %w", id, err)
	}

	balance, err := a.readBalance(ctx, page)
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%s: balance: %w", id, err)
	}

	expire, err := a.readExpiry(ctx, page, meta)
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%s: expiration: %w", id, err)
	}

	return model.BalanceResult{Balance: balance, ExpireDate: expire}, nil
}

// logout runs even when ctx is already cancelled so the shared session is
// not left signed in.
func (a *Adapter) logout(ctx context.Context, page driven.Page) {
	if len(a.recipe.Logout) == 0 {
		return
	}
	if err := a.runSteps(context.WithoutCancel(ctx), page, a.recipe.Logout, nil); err != nil {
		slog.Warn("logout failed", "adapter", a.recipe.ID, "error", err)
	}
}

func (a *Adapter) runSteps(ctx context.Context, page driven.Page, steps []Step, fields map[string]string) error {
	var (
		guard  string
		active = true
	)
	for i, s := range steps {
		if s.When != guard {
			guard, active = s.When, true
			if guard != "" {
				ok, err := page.Exists(ctx, guard)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				active = ok
			}
		}
		if !active {
			continue
		}
		if err := a.runStep(ctx, page, s, fields); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (a *Adapter) runStep(ctx context.Context, page driven.Page, s Step, fields map[string]string) error {
	switch s.Action {
	case ActionNavigate:
		return page.Navigate(ctx, s.URL)
	case ActionWaitVisible:
		return page.WaitVisible(ctx, s.Selector)
	case ActionClick:
		return page.Click(ctx, s.Selector)
	case ActionClickIfPresent:
		ok, err := page.Exists(ctx, s.Selector)
		if err != nil || !ok {
			return err
		}
		return page.Click(ctx, s.Selector)
	case ActionFill:
		value, ok := fields[s.Field]
		if !ok {
			return fmt.Errorf("account has no %q field", s.Field)
		}
		return page.Fill(ctx, s.Selector, value)
	case ActionPrompt:
		if a.prompter == nil {
			return errors.New("no prompter configured")
		}
		value, err := a.prompter.Prompt(ctx, s.Message)
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		return page.Fill(ctx, s.Selector, strings.TrimSpace(value))
	default:
		return fmt.Errorf("unknown step action %d", s.Action)
	}
}

func (a *Adapter) readBalance(ctx context.Context, page driven.Page) (int, error) {
	rule := a.recipe.Balance
	if rule.URL != "" {
		if err := page.Navigate(ctx, rule.URL); err != nil {
			return 0, err
		}
	}
	if err := page.WaitVisible(ctx, rule.Selector); err != nil {
		return 0, err
	}

	if !rule.Sum {
		text, err := page.Text(ctx, rule.Selector)
		if err != nil {
			return 0, err
		}
		return extractPoints(text, rule.Pattern)
	}

	texts, err := page.Texts(ctx, rule.Selector)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, text := range texts {
		n, err := extractPoints(text, rule.Pattern)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (a *Adapter) readExpiry(ctx context.Context, page driven.Page, meta model.ProviderMeta) (*time.Time, error) {
	rule := a.recipe.Expiry
	if rule.Kind == ExpiryNone {
		return nil, nil
	}
	if rule.Kind == ExpiryLastActivity && meta.ExpireAfterMonths <= 0 {
		return nil, nil
	}

	if rule.URL != "" {
		if err := page.Navigate(ctx, rule.URL); err != nil {
			return nil, err
		}
	}

	switch rule.Kind {
	case ExpiryExplicit:
		ok, err := page.Exists(ctx, rule.Selector)
		if err != nil || !ok {
			return nil, err
		}
		text, err := page.Text(ctx, rule.Selector)
		if err != nil {
			return nil, err
		}
		if rule.NeverIf != "" && strings.Contains(text, rule.NeverIf) {
			return nil, nil
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			return nil, fmt.Errorf("no date in %q", text)
		}
		d, err := parseDay(rule.Layout, m[rule.Pattern.SubexpIndex("date")])
		if err != nil {
			return nil, err
		}
		return &d, nil

	case ExpiryLastActivity:
		texts, err := page.Texts(ctx, rule.Selector)
		if err != nil {
			return nil, err
		}
		last, ok, err := lastActivity(texts, rule)
		if err != nil || !ok {
			return nil, err
		}
		d := addMonths(last, meta.ExpireAfterMonths)
		return &d, nil

	default:
		return nil, fmt.Errorf("unknown expiry kind %d", rule.Kind)
	}
}

// lastActivity returns the date of the first entry (entries are newest
// first) whose point change is not zero.
func lastActivity(entries []string, rule ExpiryRule) (time.Time, bool, error) {
	dateIdx := rule.Pattern.SubexpIndex("date")
	pointsIdx := rule.Pattern.SubexpIndex("points")

	for _, entry := range entries {
		m := rule.Pattern.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		points, err := parseSigned(m[pointsIdx])
		if err != nil || points == 0 {
			continue
		}
		d, err := parseDay(rule.Layout, m[dateIdx])
		if err != nil {
			return time.Time{}, false, err
		}
		return d, true, nil
	}
	return time.Time{}, false, nil
}

var digitsRE = regexp.MustCompile(`[\d,]+`)

// extractPoints pulls a non-negative integer out of text.
func extractPoints(text string, pattern *regexp.Regexp) (int, error) {
	var raw string
	if pattern != nil {
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			return 0, fmt.Errorf("no balance in %q", text)
		}
		raw = m[1]
	} else {
		raw = digitsRE.FindString(text)
		if raw == "" {
			return 0, fmt.Errorf("no balance in %q", text)
		}
	}

	n, err := parseSigned(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative balance %d", n)
	}
	return n, nil
}

// parseSigned parses "1,234", "+1,234" or "-1,234".
func parseSigned(s string) (int, error) {
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return n, nil
}

func parseDay(layout, s string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// addMonths adds n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month is Feb 28 or 29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
