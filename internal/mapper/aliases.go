package mapper

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Canonical field names all carrier-specific headers are mapped onto.
const (
	FieldMemberID      = "member_id"
	FieldEffectiveDate = "effective_date"
	FieldPayout        = "payout"
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldMemberName    = "member_name"
	FieldProductName   = "product_name"
	FieldPlanName      = "plan_name"
)

// requiredFields must all resolve or the table is rejected.
var requiredFields = []string{FieldMemberID, FieldEffectiveDate, FieldPayout}

// optionalFields are mapped opportunistically; absence never fails a table.
var optionalFields = []string{
	FieldFirstName, FieldLastName, FieldMemberName, FieldProductName, FieldPlanName,
}

// builtinAliases is the ordered alias table per canonical field. Earlier
// aliases win; matching is case/whitespace-insensitive, exact before
// substring. The entries cover every header variant observed across the
// supported carriers' statements.
var builtinAliases = map[string][]string{
	FieldMemberID: {
		"member id", "memberid", "policy id", "policyid", "policy number",
		"policy num", "policy no", "policy", "member number", "contract id",
		"subscriber id", "member",
	},
	FieldEffectiveDate: {
		"effective date", "effectivedate", "eff date", "commission date",
		"payment date", "pay date", "month paid", "paid to date", "date",
	},
	FieldPayout: {
		"payout", "paid amount", "commission amount", "commission amt",
		"total commissions", "commission paid", "commission", "amount paid",
		"total amount", "amount",
	},
	FieldFirstName:   {"first name", "firstname", "member first name"},
	FieldLastName:    {"last name", "lastname", "member last name"},
	FieldMemberName:  {"member name", "employee name", "subscriber name", "insured name", "name"},
	FieldProductName: {"product type", "product name", "product"},
	FieldPlanName:    {"plan name", "plan"},
}

// normalizeHeader folds a raw header cell for alias comparison: lowercase,
// underscores to spaces, collapsed inner whitespace.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// dateFormats are accepted effective-date layouts, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01/02/06",
}

// parseDate coerces a raw cell into a calendar date at midnight UTC.
// Time-of-day, if present in the source, is discarded.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, eris.New("mapper: empty date cell")
	}
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, eris.Errorf("mapper: unparseable date %q", raw)
}

// parseAmount coerces a raw cell into a decimal amount. Currency symbols,
// thousands separators and surrounding whitespace are stripped; an
// accounting-style parenthesized value parses as negative.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, eris.New("mapper: empty amount cell")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "mapper: unparseable amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
