// Package mailing renders outreach and reminder email content.
//
// Campaign subjects and bodies use a plain {{token}} substitution with a
// fixed contract: verbatim replacement, no escaping, no recursion, no
// default values, and unmatched tokens pass through unchanged so a typo'd
// placeholder is visible in the output rather than silently blanked.
// Reminder and summary emails use Liquid templates, which don't carry
// that contract.
package mailing

import (
	"regexp"
	"strings"
)

var tokenRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z][a-zA-Z0-9_]*)\s*\}\}`)

// Render substitutes {{token}} placeholders in template from ctx.
// Tokens with no entry in ctx are left literally in the output.
// Substitution is a single pass: values containing {{...}} are not
// re-expanded.
func Render(template string, ctx map[string]string) string {
	return tokenRegex.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := ctx[key]; ok {
			return val
		}
		return match
	})
}

// CampaignContext builds the per-recipient render context for a campaign
// send. Keys match the placeholder names exposed in the campaign editor.
func CampaignContext(firstName, lastName, currentCompany, currentTitle, location, jobTitle, companyName, senderName string) map[string]string {
	return map[string]string{
		"firstName":      firstName,
		"lastName":       lastName,
		"currentCompany": currentCompany,
		"currentTitle":   currentTitle,
		"location":       location,
		"jobTitle":       jobTitle,
		"companyName":    companyName,
		"senderName":     senderName,
	}
}
