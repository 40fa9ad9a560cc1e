// Package export shapes leads into flat output rows and writes them as CSV,
// XLSX, JSON, or into Postgres.
package export

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
)

// Row is one cleaned output record. Field order is the column order.
type Row struct {
	Tier             model.Tier `json:"tier"`
	LeadScore        int        `json:"leadScore"`
	BusinessName     string     `json:"businessName"`
	Category         string     `json:"category"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Website          string     `json:"website"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Zip              string     `json:"zip"`
	Rating           float64    `json:"rating"`
	ReviewCount      int        `json:"reviewCount"`
	WebsiteSummary   string     `json:"websiteSummary"`
	ColdEmailSubject string     `json:"coldEmailSubject"`
	ColdEmailBody    string     `json:"coldEmailBody"`
	VoicemailScript  string     `json:"voicemailScript"`
	SMSMessage       string     `json:"smsMessage"`
	Facebook         string     `json:"facebook"`
	Instagram        string     `json:"instagram"`
	LinkedIn         string     `json:"linkedin"`
	AdditionalEmails string     `json:"additionalEmails"`
	AdditionalPhones string     `json:"additionalPhones"`
	HasContactForm   bool       `json:"hasContactForm"`
	HasBookingWidget bool       `json:"hasBookingWidget"`
	HasChatWidget    bool       `json:"hasChatWidget"`
	ScoreReasons     string     `json:"scoreReasons"`
	Source           string     `json:"source"`
	CollectedAt      time.Time  `json:"collectedAt"`
	DedupeID         string     `json:"dedupeId"`
}

// Columns are the header names of a Row, in order.
var Columns = []string{
	"tier", "leadScore", "businessName", "category", "phone", "email", "website",
	"address", "city", "state", "zip", "rating", "reviewCount", "websiteSummary",
	"coldEmailSubject", "coldEmailBody", "voicemailScript", "smsMessage",
	"facebook", "instagram", "linkedin", "additionalEmails", "additionalPhones",
	"hasContactForm", "hasBookingWidget", "hasChatWidget", "scoreReasons",
	"source", "collectedAt", "dedupeId",
}

// NewRow flattens a lead into an output row.
func NewRow(l model.Lead) Row {
	r := Row{
		Tier:             l.Score.Tier,
		LeadScore:        l.Score.LeadScore,
		BusinessName:     l.Business.Name,
		Category:         l.Business.Category,
		Phone:            l.Business.Phone,
		Website:          l.Online.Website,
		Address:          l.Business.Address.Formatted,
		City:             l.Business.Address.City,
		State:            l.Business.Address.State,
		Zip:              l.Business.Address.PostalCode,
		Rating:           l.Signals.Reviews.Rating,
		ReviewCount:      l.Signals.Reviews.ReviewCount,
		WebsiteSummary:   WebsiteSummary(l.Signals.WebsiteChunk),
		ColdEmailSubject: EmailSubject(l.AI.ColdEmail),
		ColdEmailBody:    EmailBody(l.AI.ColdEmail),
		VoicemailScript:  l.AI.Voicemail,
		SMSMessage:       l.AI.SMS,
		Facebook:         l.Online.Socials["facebook"],
		Instagram:        l.Online.Socials["instagram"],
		LinkedIn:         l.Online.Socials["linkedin"],
		HasContactForm:   l.Signals.WebsiteSignals.HasContactForm,
		HasBookingWidget: l.Signals.WebsiteSignals.HasBookingWidget,
		HasChatWidget:    l.Signals.WebsiteSignals.HasChatWidget,
		ScoreReasons:     strings.Join(l.Score.Reasons, ", "),
		Source:           SourceLabel(l.Sources),
		CollectedAt:      l.Raw.CollectedAt,
		DedupeID:         l.DedupeID,
	}

	if len(l.Contacts.Emails) > 0 {
		r.Email = l.Contacts.Emails[0].Email
		extra := make([]string, 0, len(l.Contacts.Emails)-1)
		for _, e := range l.Contacts.Emails[1:] {
			extra = append(extra, e.Email)
		}
		r.AdditionalEmails = strings.Join(extra, ", ")
	}
	if len(l.Contacts.Phones) > 1 {
		extra := make([]string, 0, len(l.Contacts.Phones)-1)
		for _, p := range l.Contacts.Phones[1:] {
			extra = append(extra, p.Phone)
		}
		r.AdditionalPhones = strings.Join(extra, ", ")
	}
	return r
}

// NewRows flattens leads in order.
func NewRows(leads []model.Lead) []Row {
	rows := make([]Row, len(leads))
	for i, l := range leads {
		rows[i] = NewRow(l)
	}
	return rows
}

// Values returns the row's cells in column order with native types.
func (r Row) Values() []any {
	return []any{
		string(r.Tier), r.LeadScore, r.BusinessName, r.Category, r.Phone, r.Email, r.Website,
		r.Address, r.City, r.State, r.Zip, r.Rating, r.ReviewCount, r.WebsiteSummary,
		r.ColdEmailSubject, r.ColdEmailBody, r.VoicemailScript, r.SMSMessage,
		r.Facebook, r.Instagram, r.LinkedIn, r.AdditionalEmails, r.AdditionalPhones,
		r.HasContactForm, r.HasBookingWidget, r.HasChatWidget, r.ScoreReasons,
		r.Source, r.CollectedAt, r.DedupeID,
	}
}

// Strings returns the row's cells formatted as text, in column order.
func (r Row) Strings() []string {
	vals := r.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = formatCell(v)
	}
	return out
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// SourceLabel names the most authoritative source of a lead.
func SourceLabel(sources map[string]model.SourceMeta) string {
	for _, s := range []struct{ key, label string }{
		{model.SourceGoogleMaps, "Google Maps"},
		{model.SourceYelp, "Yelp"},
		{model.SourceBBB, "BBB"},
		{model.SourceSERP, "Google Search"},
	} {
		if _, ok := sources[s.key]; ok {
			return s.label
		}
	}
	return "Unknown"
}

var subjectLine = regexp.MustCompile(`(?m)^Subject:[ \t]*(.+?)[ \t]*$`)

// EmailSubject extracts the subject of a drafted cold email.
func EmailSubject(coldEmail string) string {
	m := subjectLine.FindStringSubmatch(coldEmail)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var subjectBlock = regexp.MustCompile(`(?m)^Subject:.*\n+`)

// EmailBody returns a drafted cold email without its subject line. A draft
// that is only a subject line comes back whole.
func EmailBody(coldEmail string) string {
	if coldEmail == "" {
		return ""
	}
	loc := subjectBlock.FindStringIndex(coldEmail)
	if loc == nil {
		return strings.TrimSpace(coldEmail)
	}
	body := strings.TrimSpace(coldEmail[:loc[0]] + coldEmail[loc[1]:])
	if body == "" {
		return coldEmail
	}
	return body
}

const (
	summaryMaxChars  = 500
	fallbackMaxChars = 300
)

var (
	chunkTitle    = regexp.MustCompile(`(?i)TITLE:[ \t]*(.+)`)
	chunkDesc     = regexp.MustCompile(`(?i)DESCRIPTION:[ \t]*(.+)`)
	chunkHeadings = regexp.MustCompile(`(?i)MAIN HEADINGS:[ \t]*(.+)`)
	chunkSections = regexp.MustCompile(`(?i)SECTIONS:[ \t]*(.+)`)
	chunkContent  = regexp.MustCompile(`(?is)CONTENT:\s*(.+)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// WebsiteSummary condenses a website chunk into one line: title,
// description, and headings (or section titles) joined by " | ". Chunks with
// none of those fall back to the start of the content.
func WebsiteSummary(chunk string) string {
	if chunk == "" {
		return ""
	}

	first := func(re *regexp.Regexp) (string, bool) {
		m := re.FindStringSubmatch(chunk)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}

	var parts []string
	if v, ok := first(chunkTitle); ok {
		parts = append(parts, v)
	}
	if v, ok := first(chunkDesc); ok {
		parts = append(parts, v)
	}
	headings, hasHeadings := first(chunkHeadings)
	if hasHeadings {
		parts = append(parts, "Services: "+headings)
	} else if v, ok := first(chunkSections); ok {
		parts = append(parts, "Sections: "+v)
	}
	if len(parts) > 0 {
		return truncateRunes(strings.Join(parts, " | "), summaryMaxChars)
	}

	text := chunk
	if v, ok := first(chunkContent); ok {
		text = v
	}
	return whitespace.ReplaceAllString(truncateRunes(text, fallbackMaxChars), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
