// Package merge folds raw leads that share an identity key into one
// consolidated lead per business.
package merge

import (
	"maps"
	"slices"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// Leads groups raw leads by DedupeID and merges every group. Output order
// follows the first appearance of each key. Inputs are never mutated and the
// result never shares maps or slices with them.
func Leads(raw []model.Lead) []model.Lead {
	order := make([]string, 0, len(raw))
	groups := make(map[string][]int, len(raw))
	for i, l := range raw {
		if _, ok := groups[l.DedupeID]; !ok {
			order = append(order, l.DedupeID)
		}
		groups[l.DedupeID] = append(groups[l.DedupeID], i)
	}

	out := make([]model.Lead, 0, len(order))
	for _, key := range order {
		idx := groups[key]
		if len(idx) == 1 {
			out = append(out, raw[idx[0]].Clone())
			continue
		}
		members := make([]model.Lead, len(idx))
		for j, i := range idx {
			members[j] = raw[i]
		}
		out = append(out, Group(members))
	}
	return out
}

// Confidence returns the merged confidence for a group of n corroborating
// records.
func Confidence(n int) float64 {
	return min(0.5+0.2*float64(n), 1.0)
}

// Group merges members (all sharing one DedupeID) in slice order. Later
// non-empty values win; empty values never overwrite.
func Group(members []model.Lead) model.Lead {
	if len(members) == 0 {
		return model.Lead{}
	}
	acc := members[0].Clone()
	for _, m := range members[1:] {
		acc = fold(acc, m)
	}
	acc.DedupeID = members[0].DedupeID
	if len(members) > 1 {
		acc.Confidence = Confidence(len(members))
	}
	return acc
}

// fold merges next into acc. acc is owned by the caller; next is read-only.
func fold(acc, next model.Lead) model.Lead {
	for k, v := range next.Sources {
		if acc.Sources == nil {
			acc.Sources = make(map[string]model.SourceMeta)
		}
		acc.Sources[k] = maps.Clone(v)
	}

	acc.Business = mergeBusiness(acc.Business, next.Business)
	acc.Online = mergeOnline(acc.Online, next.Online)
	acc.Contacts = mergeContacts(acc.Contacts, next.Contacts)
	acc.Signals = mergeSignals(acc.Signals, next.Signals)

	if next.Score.LeadScore != 0 || next.Score.Tier != "" {
		acc.Score = model.Score{
			LeadScore: next.Score.LeadScore,
			Tier:      next.Score.Tier,
			Reasons:   slices.Clone(next.Score.Reasons),
		}
	}
	acc.AI.ColdEmail = preferNonEmpty(acc.AI.ColdEmail, next.AI.ColdEmail)
	acc.AI.Voicemail = preferNonEmpty(acc.AI.Voicemail, next.AI.Voicemail)
	acc.AI.SMS = preferNonEmpty(acc.AI.SMS, next.AI.SMS)

	acc.Raw = mergeRaw(acc.Raw, next.Raw)
	return acc
}

func preferNonEmpty[T comparable](cur, next T) T {
	var zero T
	if next != zero {
		return next
	}
	return cur
}

func mergeBusiness(a, b model.Business) model.Business {
	a.Name = preferNonEmpty(a.Name, b.Name)
	a.Category = preferNonEmpty(a.Category, b.Category)
	a.Categories = union(a.Categories, b.Categories)
	a.Description = preferNonEmpty(a.Description, b.Description)
	a.Address = mergeAddress(a.Address, b.Address)
	a.Geo = preferNonEmpty(a.Geo, b.Geo)
	a.Phone = preferNonEmpty(a.Phone, b.Phone)
	a.PhoneE164 = preferNonEmpty(a.PhoneE164, b.PhoneE164)
	return a
}

func mergeAddress(a, b model.Address) model.Address {
	a.Street = preferNonEmpty(a.Street, b.Street)
	a.City = preferNonEmpty(a.City, b.City)
	a.State = preferNonEmpty(a.State, b.State)
	a.PostalCode = preferNonEmpty(a.PostalCode, b.PostalCode)
	a.Country = preferNonEmpty(a.Country, b.Country)
	a.Formatted = preferNonEmpty(a.Formatted, b.Formatted)
	return a
}

func mergeOnline(a, b model.Online) model.Online {
	a.Website = preferNonEmpty(a.Website, b.Website)
	a.Domain = preferNonEmpty(a.Domain, b.Domain)
	for k, v := range b.Socials {
		if v == "" {
			continue
		}
		if a.Socials == nil {
			a.Socials = make(map[string]string, len(b.Socials))
		}
		a.Socials[k] = v
	}
	return a
}

func mergeContacts(a, b model.Contacts) model.Contacts {
	seenEmail := make(map[string]struct{}, len(a.Emails)+len(b.Emails))
	emails := make([]model.ContactEmail, 0, len(a.Emails)+len(b.Emails))
	for _, e := range slices.Concat(a.Emails, b.Emails) {
		k := strings.ToLower(e.Email)
		if _, ok := seenEmail[k]; ok {
			continue
		}
		seenEmail[k] = struct{}{}
		emails = append(emails, e)
	}

	seenPhone := make(map[string]struct{}, len(a.Phones)+len(b.Phones))
	phones := make([]model.ContactPhone, 0, len(a.Phones)+len(b.Phones))
	for _, p := range slices.Concat(a.Phones, b.Phones) {
		k := p.DedupeKey()
		if _, ok := seenPhone[k]; ok {
			continue
		}
		seenPhone[k] = struct{}{}
		phones = append(phones, p)
	}

	out := model.Contacts{
		Emails:         emails,
		Phones:         phones,
		KeyPeople:      slices.Concat(a.KeyPeople, b.KeyPeople),
		ContactFormURL: preferNonEmpty(a.ContactFormURL, b.ContactFormURL),
	}
	if len(out.Emails) == 0 && a.Emails == nil && b.Emails == nil {
		out.Emails = nil
	}
	if len(out.Phones) == 0 && a.Phones == nil && b.Phones == nil {
		out.Phones = nil
	}
	return out
}

func mergeSignals(a, b model.Signals) model.Signals {
	a.Reviews.Rating = preferNonEmpty(a.Reviews.Rating, b.Reviews.Rating)
	a.Reviews.ReviewCount = preferNonEmpty(a.Reviews.ReviewCount, b.Reviews.ReviewCount)
	a.Reviews.LastReviewDate = preferNonEmpty(a.Reviews.LastReviewDate, b.Reviews.LastReviewDate)

	a.Hours.IsOpen = a.Hours.IsOpen || b.Hours.IsOpen
	a.Hours.HoursText = preferNonEmpty(a.Hours.HoursText, b.Hours.HoursText)

	a.WebsiteSignals.HasContactForm = a.WebsiteSignals.HasContactForm || b.WebsiteSignals.HasContactForm
	a.WebsiteSignals.HasBookingWidget = a.WebsiteSignals.HasBookingWidget || b.WebsiteSignals.HasBookingWidget
	a.WebsiteSignals.HasChatWidget = a.WebsiteSignals.HasChatWidget || b.WebsiteSignals.HasChatWidget

	for k, v := range b.TechSignals {
		if a.TechSignals == nil {
			a.TechSignals = make(map[string]bool, len(b.TechSignals))
		}
		a.TechSignals[k] = a.TechSignals[k] || v
	}

	if len(b.WebsiteChunk) > len(a.WebsiteChunk) {
		a.WebsiteChunk = b.WebsiteChunk
	}
	return a
}

func mergeRaw(a, b model.Raw) model.Raw {
	if !b.CollectedAt.IsZero() && (a.CollectedAt.IsZero() || b.CollectedAt.Before(a.CollectedAt)) {
		a.CollectedAt = b.CollectedAt
	}
	a.RunID = preferNonEmpty(a.RunID, b.RunID)
	switch {
	case b.Notes == "":
	case a.Notes == "":
		a.Notes = b.Notes
	case !slices.Contains(strings.Split(a.Notes, "; "), b.Notes):
		a.Notes += "; " + b.Notes
	}
	return a
}

// union appends the values of b missing from a, keeping first-seen order.
func union(a, b []string) []string {
	for _, v := range b {
		if v != "" && !slices.Contains(a, v) {
			a = append(a, v)
		}
	}
	return a
}
