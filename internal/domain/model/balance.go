package model

import "time"

// NoExpiryDisplay is rendered in place of a null cached expiration date.
const NoExpiryDisplay = "Do not expire"

// DateLayout is the calendar-day layout used for history and expiry dates.
const DateLayout = "2006-01-02"

// HistoryEntry is one recorded balance for one calendar day.
type HistoryEntry struct {
	Date    time.Time
	Balance int
}

// BalanceRow is one account line in a user's latest-balances overview.
type BalanceRow struct {
	AccountID      int64
	Provider       string
	Identity       string
	Balance        int
	ExpectedExpire *time.Time
	Updated        time.Time
}

// ExpireDisplay renders the cached expiration, or NoExpiryDisplay when unset.
func (r BalanceRow) ExpireDisplay() string {
	if r.ExpectedExpire == nil {
		return NoExpiryDisplay
	}
	return r.ExpectedExpire.Format(DateLayout)
}

// CategoryBalances groups balance rows under one category, in catalog order.
type CategoryBalances struct {
	Category string
	Rows     []BalanceRow
}

// BalanceResult is what an adapter reports for one account.
type BalanceResult struct {
	Balance    int
	ExpireDate *time.Time
}
