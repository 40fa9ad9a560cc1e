package outreach

import (
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

type section int

const (
	sectionNone section = iota
	sectionSubject
	sectionBody
	sectionVoicemail
	sectionSMS
)

var sectionHeaders = map[string]section{
	"COLD_EMAIL_SUBJECT": sectionSubject,
	"COLD_EMAIL_BODY":    sectionBody,
	"VOICEMAIL":          sectionVoicemail,
	"SMS":                sectionSMS,
}

// ParseResponse splits a model reply into outreach fields. Each header
// line opens a section that runs until the next header; text on the header
// line itself after the colon belongs to the section. The cold email is
// only set when both subject and body are present.
func ParseResponse(content string) model.AI {
	parts := make(map[section][]string)
	cur := sectionNone

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if s, rest, ok := header(line); ok {
			cur = s
			if rest != "" {
				parts[cur] = append(parts[cur], rest)
			}
			continue
		}
		if cur != sectionNone {
			parts[cur] = append(parts[cur], line)
		}
	}

	text := func(s section) string {
		return strings.TrimSpace(strings.Join(parts[s], "\n"))
	}

	var ai model.AI
	subject, body := text(sectionSubject), text(sectionBody)
	if subject != "" && body != "" {
		ai.ColdEmail = "Subject: " + subject + "\n\n" + body
	}
	ai.Voicemail = text(sectionVoicemail)
	ai.SMS = text(sectionSMS)
	return ai
}

// header recognizes "NAME:" lines, tolerating markdown emphasis around the
// name.
func header(line string) (section, string, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "#* ")
	name, rest, ok := strings.Cut(trimmed, ":")
	if !ok {
		return sectionNone, "", false
	}
	s, known := sectionHeaders[strings.TrimRight(strings.TrimSpace(name), "*")]
	if !known {
		return sectionNone, "", false
	}
	return s, strings.TrimSpace(strings.Trim(rest, "* ")), true
}
