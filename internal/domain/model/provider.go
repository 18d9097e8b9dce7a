package model

import "strings"

// FieldSeparator joins ordered field names, labels and values into a single
// stored string. It must never appear inside a legitimate field value.
const FieldSeparator = "; ;"

// Category groups providers for display. Categories are static.
type Category struct {
	ID   int64
	Name string
}

// Field describes one identity or credential input a provider requires.
type Field struct {
	Name  string
	Label string
}

// ProviderMeta is the subset of a provider definition handed to adapters.
type ProviderMeta struct {
	ExpireAfterMonths int
	Note              string
}

// ProviderDefinition describes one supported reward program. The first field
// is always the account's display identity.
type ProviderDefinition struct {
	Category          string
	Name              string
	ExpireAfterMonths int
	Note              string
	AdapterID         string
	Fields            []Field
}

// IdentityField returns the field used to tell a user's accounts apart.
func (p ProviderDefinition) IdentityField() Field {
	if len(p.Fields) == 0 {
		return Field{}
	}
	return p.Fields[0]
}

// FieldNames returns the ordered field names.
func (p ProviderDefinition) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldLabels returns the ordered field labels.
func (p ProviderDefinition) FieldLabels() []string {
	labels := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		labels[i] = f.Label
	}
	return labels
}

// Meta returns the adapter-facing metadata.
func (p ProviderDefinition) Meta() ProviderMeta {
	return ProviderMeta{ExpireAfterMonths: p.ExpireAfterMonths, Note: p.Note}
}

// DisplayName renders the provider the way the enrollment picker lists it.
func (p ProviderDefinition) DisplayName() string {
	return p.Category + ": " + p.Name
}

// JoinFields encodes ordered values into one separator-delimited string.
func JoinFields(values []string) string {
	return strings.Join(values, FieldSeparator)
}

// SplitFields decodes a separator-delimited string into ordered values.
// An empty string yields no values.
func SplitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, FieldSeparator)
}
