package agent

import "regexp"

// PII scrubbing applied to retrieved snippets before agents see them and to
// agent output before it leaves the coordinator. Belt-and-braces: sanitized
// contexts carry no PII, but knowledge corpora and generative collaborators
// are outside our control.
var (
	emailPattern     = regexp.MustCompile(`\b[\w.%-]+@[\w.-]+\.[A-Za-z]{2,6}\b`)
	longDigitPattern = regexp.MustCompile(`\d{5,}`)
	handlePattern    = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\b`)
)

const redacted = "[REDACTED]"

// Scrub redacts email addresses, long digit sequences (account, phone, card
// numbers), and UPI-style handles.
func Scrub(text string) string {
	text = emailPattern.ReplaceAllString(text, redacted)
	text = longDigitPattern.ReplaceAllString(text, redacted)
	text = handlePattern.ReplaceAllString(text, redacted)
	return text
}
