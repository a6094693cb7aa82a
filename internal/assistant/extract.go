package assistant

import (
	"regexp"
	"strings"
)

// Default slot values used when extraction finds nothing.
const (
	DefaultLeadLastName = "Lead from Slack"
	DefaultLeadCompany  = "Unknown Company"
)

// LeadSlots is the result of best-effort slot extraction for a lead-creation
// request. The Defaulted flags make a fallback distinguishable from a parse.
type LeadSlots struct {
	FirstName string
	LastName  string
	Company   string
	Email     string

	NameDefaulted    bool
	CompanyDefaulted bool
}

var (
	// "create lead for Jane Doe ..." / "new lead named Jane Doe". Names
	// stay case-sensitive so trailing lowercase words are not swallowed.
	leadNameRe = regexp.MustCompile(`(?i:lead\s+(?:for|named|called)\s+)([A-Z][A-Za-z'-]*)(?:\s+([A-Z][A-Za-z'-]*))?`)
	// "... at Acme", "... from Acme Corp". As with names, the captured
	// words stay case-sensitive so trailing clauses are not swallowed.
	leadCompanyRe = regexp.MustCompile(`\b(?i:at|from|of)\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*)*)`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// ExtractLeadSlots pulls a person's name, company, and email out of free
// text. It is regex-based and intentionally approximate; missing slots fall
// back to defaults, with the fallback recorded in the result.
func ExtractLeadSlots(text string) LeadSlots {
	slots := LeadSlots{}

	if m := leadNameRe.FindStringSubmatch(text); m != nil {
		slots.FirstName = m[1]
		if m[2] != "" {
			slots.LastName = m[2]
		}
	}
	if slots.FirstName == "" && slots.LastName == "" {
		slots.LastName = DefaultLeadLastName
		slots.NameDefaulted = true
	} else if slots.LastName == "" {
		// Single-word name: treat it as the last name so the record is valid.
		slots.LastName = slots.FirstName
		slots.FirstName = ""
	}

	if m := leadCompanyRe.FindStringSubmatch(text); m != nil {
		slots.Company = strings.TrimSpace(m[1])
	}
	if slots.Company == "" {
		slots.Company = DefaultLeadCompany
		slots.CompanyDefaulted = true
	}

	slots.Email = emailRe.FindString(text)
	return slots
}
