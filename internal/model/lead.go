// Package model defines the lead record shared by discovery, enrichment,
// merge, scoring, delta tracking, outreach, and export.
package model

import (
	"maps"
	"slices"
	"time"
)

// Tier is a coarse lead-quality bucket derived from the numeric score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Source names used as keys of Lead.Sources.
const (
	SourceGoogleMaps = "googleMaps"
	SourceYelp       = "yelp"
	SourceBBB        = "bbb"
	SourceSERP       = "serp"
	SourceCustomURL  = "customUrl"
)

// SourceMeta is source-specific provenance (url, placeId, bizId, snippet, ...).
type SourceMeta map[string]any

// Lead is a candidate business record.
type Lead struct {
	DedupeID   string                `json:"dedupeId"`
	Confidence float64               `json:"confidence"`
	Sources    map[string]SourceMeta `json:"sources"`
	Business   Business              `json:"business"`
	Online     Online                `json:"online"`
	Contacts   Contacts              `json:"contacts"`
	Signals    Signals               `json:"signals"`
	Score      Score                 `json:"score"`
	AI         AI                    `json:"ai"`
	Raw        Raw                   `json:"raw"`
}

// Business holds identity and location data for a lead.
type Business struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
	Address     Address  `json:"address"`
	Geo         Geo      `json:"geo"`
	Phone       string   `json:"phone"`
	PhoneE164   string   `json:"phoneE164"`
}

// Address is a postal address. Formatted is the single-line form used for identity.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Formatted  string `json:"formatted"`
}

// Geo is a WGS84 coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Online holds the lead's web presence.
type Online struct {
	Website string            `json:"website"`
	Domain  string            `json:"domain"`
	Socials map[string]string `json:"socials"`
}

// Contacts holds contact channels discovered for a lead.
type Contacts struct {
	Emails         []ContactEmail `json:"emails"`
	Phones         []ContactPhone `json:"phones"`
	KeyPeople      []KeyPerson    `json:"keyPeople"`
	ContactFormURL string         `json:"contactFormUrl,omitempty"`
}

// ContactEmail is a single email address with extraction metadata.
type ContactEmail struct {
	Email       string  `json:"email"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
	IsRoleBased bool    `json:"isRoleBased"`
	IsValidated bool    `json:"isValidated"`
}

// ContactPhone is a single phone number with extraction metadata.
type ContactPhone struct {
	Phone      string  `json:"phone"`
	PhoneE164  string  `json:"phoneE164"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// DedupeKey returns the phone's identity within a contact list: the E.164
// form when known, otherwise the raw string.
func (p ContactPhone) DedupeKey() string {
	if p.PhoneE164 != "" {
		return p.PhoneE164
	}
	return p.Phone
}

// KeyPerson is a named person associated with the business.
type KeyPerson struct {
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Email  string `json:"email,omitempty"`
	Source string `json:"source,omitempty"`
}

// Signals are the scoring inputs gathered by discovery and enrichment.
type Signals struct {
	Reviews        Reviews         `json:"reviews"`
	Hours          Hours           `json:"hours"`
	WebsiteSignals WebsiteSignals  `json:"websiteSignals"`
	TechSignals    map[string]bool `json:"techSignals"`
	WebsiteChunk   string          `json:"websiteChunk,omitempty"`
}

// Reviews summarizes review-site reputation.
type Reviews struct {
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"reviewCount"`
	LastReviewDate string  `json:"lastReviewDate"`
}

// Hours describes opening status.
type Hours struct {
	IsOpen    bool   `json:"isOpen"`
	HoursText string `json:"hoursText"`
}

// WebsiteSignals are widget detections from the crawled website.
type WebsiteSignals struct {
	HasContactForm   bool `json:"hasContactForm"`
	HasBookingWidget bool `json:"hasBookingWidget"`
	HasChatWidget    bool `json:"hasChatWidget"`
}

// Score is the result of the scoring engine.
type Score struct {
	LeadScore int      `json:"leadScore"`
	Tier      Tier     `json:"tier"`
	Reasons   []string `json:"reasons"`
}

// AI holds drafted outreach copy. Empty strings mean not generated.
type AI struct {
	ColdEmail string `json:"coldEmail"`
	Voicemail string `json:"voicemail"`
	SMS       string `json:"sms"`
}

// Raw is collection metadata.
type Raw struct {
	CollectedAt time.Time `json:"collectedAt"`
	RunID       string    `json:"runId"`
	Notes       string    `json:"notes"`
}

// TechCount returns the number of truthy technology flags.
func (s Signals) TechCount() int {
	n := 0
	for _, v := range s.TechSignals {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the lead. Maps and slices are never shared
// with the receiver.
func (l Lead) Clone() Lead {
	out := l
	if l.Sources != nil {
		out.Sources = make(map[string]SourceMeta, len(l.Sources))
		for k, v := range l.Sources {
			out.Sources[k] = maps.Clone(v)
		}
	}
	out.Business.Categories = slices.Clone(l.Business.Categories)
	out.Online.Socials = maps.Clone(l.Online.Socials)
	out.Contacts.Emails = slices.Clone(l.Contacts.Emails)
	out.Contacts.Phones = slices.Clone(l.Contacts.Phones)
	out.Contacts.KeyPeople = slices.Clone(l.Contacts.KeyPeople)
	out.Signals.TechSignals = maps.Clone(l.Signals.TechSignals)
	out.Score.Reasons = slices.Clone(l.Score.Reasons)
	return out
}

// SourceNames returns the lead's source keys in sorted order.
func (l Lead) SourceNames() []string {
	return slices.Sorted(maps.Keys(l.Sources))
}
