package genai

import (
	"encoding/json"
	"regexp"
	"strings"

	"estate-chatbot/internal/leads"
)

// The model appends a machine-readable block to every reply:
//
//	---LEAD_DATA---
//	{ ...fixed keys, any value nullable... }
//	---END_LEAD_DATA---
//
// The block is stripped before the reply reaches the customer.
var leadDataPattern = regexp.MustCompile(`(?s)---LEAD_DATA---\s*(\{.*?\})\s*---END_LEAD_DATA---`)

// ParseReply splits a raw completion into customer-facing text and the
// extracted lead data.
//
//   - Block present, JSON valid: clean text with the block removed, decoded
//     data (null/absent fields stay nil, unknown keys dropped).
//   - Block present, JSON invalid: block is still stripped, data is zero.
//   - No block: trimmed text, zero data.
func ParseReply(raw string) (string, leads.ExtractedData) {
	m := leadDataPattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return strings.TrimSpace(raw), leads.ExtractedData{}
	}

	clean := strings.TrimSpace(raw[:m[0]] + raw[m[1]:])
	jsonStr := raw[m[2]:m[3]]

	var data leads.ExtractedData
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return clean, leads.ExtractedData{}
	}
	return clean, data
}

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	headingPattern = regexp.MustCompile(`#{1,3}\s*`)
)

// FormatForChat rewrites model markdown for Meta chat surfaces: **bold**
// becomes *bold* (the single-marker convention WhatsApp renders) and heading
// markers are dropped, leaving plain paragraph text.
func FormatForChat(text string) string {
	text = boldPattern.ReplaceAllString(text, `*$1*`)
	text = headingPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
