// Package settings defines the raw repository settings submitted by an
// operator and the field keys validation failures are reported under.
package settings

import (
	"fmt"
	"strings"
)

// Field identifies a settings field.
type Field string

// Field keys, in the order validation reports them.
const (
	FieldBrokerURL    Field = "broker_url"
	FieldJWTExpiry    Field = "jwt_expiry"
	FieldGeminiURL    Field = "gemini_url"
	FieldGeminiPseudo Field = "gemini_pseudo_bundles"
)

const bundleSeparator = ":"

// Input is the transient set of raw values submitted for validation.
type Input struct {
	BrokerURL       string   `json:"broker_url"`
	JWTExpiry       string   `json:"jwt_expiry"`
	GeminiURL       string   `json:"gemini_url"`
	SelectedBundles []string `json:"gemini_pseudo_bundles"`
}

// SelectedBundleCount returns the number of distinct, non-empty bundle
// identifiers. Unchecked options arrive as empty strings or "0".
func (in Input) SelectedBundleCount() int {
	return len(NormalizeBundles(in.SelectedBundles))
}

// Bundle is a bundle name paired with its entity type.
type Bundle struct {
	Name       string
	EntityType string
}

// String returns the "name:entity_type" form.
func (b Bundle) String() string {
	return b.Name + bundleSeparator + b.EntityType
}

// ParseBundle splits a "name:entity_type" identifier.
func ParseBundle(id string) (Bundle, error) {
	name, entityType, ok := strings.Cut(strings.TrimSpace(id), bundleSeparator)
	if !ok || name == "" || entityType == "" {
		return Bundle{}, fmt.Errorf("invalid bundle identifier %q: expected name:entity_type", id)
	}
	return Bundle{Name: name, EntityType: entityType}, nil
}

// NormalizeBundles trims, drops empty or "0" entries and removes duplicates
// while keeping first-seen order.
func NormalizeBundles(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == "0" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
