// Package identity derives the stable fingerprint used to recognise the same
// business across discovery sources.
package identity

import (
	"crypto/sha1" //nolint:gosec // fingerprint, not a security boundary
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-cli/internal/model"
)

// KeyLength is the number of hex characters kept from the digest.
const KeyLength = 16

// anonPrefix marks fallback keys for records with no identity inputs.
const anonPrefix = "anon-"

// Key returns the identity key for the given inputs. Name and address are
// normalized; domain and phoneE164 are used verbatim. Empty inputs are valid
// and yield the digest of "|||".
func Key(name, formattedAddress, domain, phoneE164 string) string {
	input := Normalize(name) + "|" + Normalize(formattedAddress) + "|" + domain + "|" + phoneE164
	return digest(input)
}

// ForLead returns the identity key of a lead.
func ForLead(l model.Lead) string {
	return Key(l.Business.Name, l.Business.Address.Formatted, l.Online.Domain, l.Business.PhoneE164)
}

// IsEmpty reports whether a lead has none of the four identity inputs.
func IsEmpty(l model.Lead) bool {
	return Normalize(l.Business.Name) == "" &&
		Normalize(l.Business.Address.Formatted) == "" &&
		l.Online.Domain == "" &&
		l.Business.PhoneE164 == ""
}

// Assign sets DedupeID on every lead that does not already carry one.
// Leads without any identity input get a fallback key built from their
// source provenance and website, so the key is stable across runs and
// unrelated empty records never collapse into one merge group.
func Assign(leads []model.Lead) {
	for i := range leads {
		if leads[i].DedupeID != "" {
			continue
		}
		if IsEmpty(leads[i]) {
			leads[i].DedupeID = fallbackKey(leads[i], i)
			continue
		}
		leads[i].DedupeID = ForLead(leads[i])
	}
}

// IsFallback reports whether a key was produced for an empty-identity record.
func IsFallback(key string) bool {
	return strings.HasPrefix(key, anonPrefix)
}

// provenanceFields are the source metadata keys that identify a listing.
var provenanceFields = []string{"url", "placeId", "bizId"}

// fallbackKey hashes source provenance and website. Only a record with
// neither falls back to its position in discovery order.
func fallbackKey(l model.Lead, idx int) string {
	var b strings.Builder
	anchored := l.Online.Website != ""
	for _, name := range l.SourceNames() {
		b.WriteString(name)
		for _, f := range provenanceFields {
			if v, ok := l.Sources[name][f].(string); ok && v != "" {
				b.WriteByte('|')
				b.WriteString(v)
				anchored = true
			}
		}
		b.WriteByte(';')
	}
	b.WriteString(l.Online.Website)
	if !anchored {
		b.WriteString("#")
		b.WriteString(strconv.Itoa(idx))
	}
	return anonPrefix + digest(b.String())
}

func digest(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:KeyLength]
}

// Normalize lowercases s, folds accents, drops every rune that is not a
// letter, digit, underscore, or whitespace, and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(s),
	)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
