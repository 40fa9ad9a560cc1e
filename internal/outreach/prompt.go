package outreach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// SystemPrompt frames every drafting request.
const SystemPrompt = "You are a professional sales copywriter specializing in B2B outreach for local service businesses."

// Fallbacks for an unset sender profile.
const (
	DefaultCompanyName     = "[Your Company]"
	DefaultServiceOffering = "digital marketing services"
)

// Sender describes who the outreach is from.
type Sender struct {
	CompanyName     string
	ServiceOffering string
}

const promptTemplate = `Generate personalized outreach content for a %s business:

Business: %s
Location: %s
Has Website: %s
Rating: %s

Your company: %s
Your offering: %s

Generate 3 types of outreach:

1. COLD EMAIL (subject + body, 150-200 words)
2. VOICEMAIL SCRIPT (30-45 seconds when read aloud)
3. SMS MESSAGE (160 characters max)

Make it:
- Personalized to their business
- Value-focused (not salesy)
- Include a clear call-to-action
- Professional but friendly tone

Format your response EXACTLY like this:

COLD_EMAIL_SUBJECT:
[subject line]

COLD_EMAIL_BODY:
[email body]

VOICEMAIL:
[voicemail script]

SMS:
[sms message]`

// BuildPrompt renders the user prompt for a lead.
func BuildPrompt(l model.Lead, from Sender) string {
	location := l.Business.Address.City
	if location == "" {
		location = l.Business.Address.Formatted
	}
	hasWebsite := "No"
	if l.Online.Website != "" {
		hasWebsite = "Yes"
	}
	company := strings.TrimSpace(from.CompanyName)
	if company == "" {
		company = DefaultCompanyName
	}
	service := strings.TrimSpace(from.ServiceOffering)
	if service == "" {
		service = DefaultServiceOffering
	}
	return fmt.Sprintf(promptTemplate,
		l.Business.Category,
		l.Business.Name,
		location,
		hasWebsite,
		ratingLine(l.Signals.Reviews),
		company,
		service,
	)
}

func ratingLine(r model.Reviews) string {
	if r.Rating <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%s/5 (%d reviews)", strconv.FormatFloat(r.Rating, 'f', -1, 64), r.ReviewCount)
}
