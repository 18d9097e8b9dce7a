package model

import "time"

// Account is one enrolled (user, provider) subscription with its decrypted
// field values.
type Account struct {
	ID             int64
	User           string
	Provider       string
	Fields         map[string]string
	Values         []string
	ExpectedExpire *time.Time
}

// Identity returns the first field value, the account's display identity.
func (a Account) Identity() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// NewAccountFields pairs ordered values with the provider's field names.
// Missing trailing values map to the empty string; surplus values are dropped.
func NewAccountFields(names, values []string) map[string]string {
	fields := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			fields[name] = values[i]
		} else {
			fields[name] = ""
		}
	}
	return fields
}
