package invoice

import (
	"regexp"
	"sort"
)

// Confidence levels assigned by the matching rules. Anchored rules match the
// whole header; partial rules match a substring.
const (
	ExactMatchConfidence   = 0.95
	PartialMatchConfidence = 0.75
	MinMappingConfidence   = 0.70
)

// CanonicalFields lists every field a source column can map to, in the order
// rules are evaluated. Evaluation order is the tie-break when two fields
// match a header with equal confidence.
var CanonicalFields = []string{
	"invoiceId",
	"customerId",
	"customerName",
	"amount",
	"amountPaid",
	"invoiceDate",
	"dueDate",
	"paidDate",
	"status",
	"currency",
	"description",
}

type matchRule struct {
	re         *regexp.Regexp
	confidence float64
}

func exact(pattern string) matchRule {
	return matchRule{regexp.MustCompile(`(?i)^(?:` + pattern + `)$`), ExactMatchConfidence}
}

func partial(pattern string) matchRule {
	return matchRule{regexp.MustCompile(`(?i)` + pattern), PartialMatchConfidence}
}

// fieldRules holds the ordered rule list per canonical field. Headers from
// real billing exports are messy, so each field carries a handful of known
// exact spellings plus a looser fallback.
var fieldRules = map[string][]matchRule{
	"invoiceId": {
		exact(`invoice\s*(?:id|#|no\.?|num(?:ber)?)|inv\s*(?:id|#|no\.?)|invoice`),
		partial(`invoice`),
	},
	"customerId": {
		exact(`customer\s*(?:id|code|#)|client\s*(?:id|code)|account\s*(?:id|code|no\.?|num(?:ber)?)|cust\s*id`),
		partial(`customer\s*id|client\s*id|account\s*id`),
	},
	"customerName": {
		exact(`customer(?:\s*name)?|client(?:\s*name)?|account(?:\s*name)?|company(?:\s*name)?|bill\s*to`),
		partial(`customer|client|company`),
	},
	"amount": {
		exact(`amount|total|invoice\s*amount|total\s*amount|amount\s*due|invoice\s*total|value|gross(?:\s*amount)?`),
		partial(`amount|total`),
	},
	"amountPaid": {
		exact(`amount\s*paid|paid\s*amount|payment(?:\s*amount)?|received|amount\s*received`),
		partial(`paid\s*amount|amount\s*paid|received`),
	},
	"invoiceDate": {
		exact(`invoice\s*date|date|issue(?:d)?\s*date|billing\s*date|created(?:\s*date)?|doc(?:ument)?\s*date`),
		partial(`invoice\s*date|issue`),
	},
	"dueDate": {
		exact(`due\s*date|due|payment\s*due(?:\s*date)?|date\s*due|expiry\s*date`),
		partial(`due`),
	},
	"paidDate": {
		exact(`paid\s*date|payment\s*date|date\s*paid|settled\s*date|settlement\s*date|closed\s*date`),
		partial(`paid\s*date|payment\s*date|settle`),
	},
	"status": {
		exact(`status|invoice\s*status|payment\s*status|state`),
		partial(`status`),
	},
	"currency": {
		exact(`currency|curr\.?|currency\s*code|ccy`),
		partial(`currency`),
	},
	"description": {
		exact(`description|memo|notes?|details?|line\s*item|narration|particulars|remarks`),
		partial(`desc|memo|note`),
	},
}

// MappingSuggestion is the best canonical-field candidate for one header.
type MappingSuggestion struct {
	Header     string  `json:"header"`
	Field      string  `json:"field"`
	Confidence float64 `json:"confidence"`
}

// SuggestColumnMappings evaluates every field's rules against every header
// and keeps each header's single highest-confidence match. Headers matching
// no rule are returned with an empty Field so callers can surface them as
// unmapped columns.
func SuggestColumnMappings(headers []string) []MappingSuggestion {
	suggestions := make([]MappingSuggestion, 0, len(headers))
	for _, header := range headers {
		best := MappingSuggestion{Header: header}
		for _, field := range CanonicalFields {
			for _, rule := range fieldRules[field] {
				if rule.re.MatchString(header) && rule.confidence > best.Confidence {
					best.Field = field
					best.Confidence = rule.confidence
				}
			}
		}
		suggestions = append(suggestions, best)
	}
	return suggestions
}

// ResolveColumnMapping turns per-header suggestions into a single injective
// ColumnMapping: candidates are taken confidence-descending and each field is
// claimed by the first unclaimed header at or above MinMappingConfidence.
// The sort is stable, so exact ties resolve by header input order.
func ResolveColumnMapping(headers []string) (ColumnMapping, []string) {
	suggestions := SuggestColumnMappings(headers)

	candidates := make([]MappingSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Field != "" && s.Confidence >= MinMappingConfidence {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var mapping ColumnMapping
	claimedField := map[string]bool{}
	claimedHeader := map[string]bool{}
	for _, c := range candidates {
		if claimedField[c.Field] || claimedHeader[c.Header] {
			continue
		}
		claimedField[c.Field] = true
		claimedHeader[c.Header] = true
		setMappedHeader(&mapping, c.Field, c.Header)
	}

	unmapped := []string{}
	for _, s := range suggestions {
		if !claimedHeader[s.Header] {
			unmapped = append(unmapped, s.Header)
		}
	}
	return mapping, unmapped
}

func setMappedHeader(m *ColumnMapping, field, header string) {
	switch field {
	case "invoiceId":
		m.InvoiceID = header
	case "customerId":
		m.CustomerID = header
	case "customerName":
		m.CustomerName = header
	case "amount":
		m.Amount = header
	case "amountPaid":
		m.AmountPaid = header
	case "invoiceDate":
		m.InvoiceDate = header
	case "dueDate":
		m.DueDate = header
	case "paidDate":
		m.PaidDate = header
	case "status":
		m.Status = header
	case "currency":
		m.Currency = header
	case "description":
		m.Description = header
	}
}
