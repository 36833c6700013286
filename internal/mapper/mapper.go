package mapper

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// SchemaError reports a table whose required canonical fields could not all
// be resolved. It fails the whole table, never the batch.
type SchemaError struct {
	Carrier string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("mapper: carrier %s: unresolved required fields: %s",
		e.Carrier, strings.Join(e.Missing, ", "))
}

// ColumnMapping maps canonical field names to source column indexes for one
// table. It is built once per table and discarded after extraction.
type ColumnMapping map[string]int

// Options configures a single table mapping.
type Options struct {
	Carrier    string
	SourceFile string
	// FixedMapping is a per-carrier config override (canonical field ->
	// column index). It is consulted before the learned profile.
	FixedMapping map[string]int
	// Profile supplies a learned fixed mapping, which takes precedence over
	// alias search for carriers whose headers are non-standard.
	Profile *model.CarrierFormatProfile
	// Aliases are per-carrier overrides merged ahead of the built-in table.
	Aliases map[string][]string
}

// Result is the outcome of mapping one table.
type Result struct {
	Entries      []model.CommissionEntry
	RejectedRows int
	Mapping      ColumnMapping
}

// Map turns a raw header row plus table rows into canonical commission
// entries. A required field that cannot be resolved rejects the table with a
// *SchemaError; a malformed cell in a required field rejects only that row.
func Map(header []string, rows [][]string, opts Options) (*Result, error) {
	mapping, missing := resolve(header, opts)
	if len(missing) > 0 {
		return nil, &SchemaError{Carrier: opts.Carrier, Missing: missing}
	}

	log := zap.L().With(
		zap.String("carrier", opts.Carrier),
		zap.String("file", opts.SourceFile),
	)

	res := &Result{Mapping: mapping}
	for i, row := range rows {
		entry, err := extractRow(header, row, mapping, opts)
		if err != nil {
			res.RejectedRows++
			log.Warn("mapper: rejected row",
				zap.Int("row", i),
				zap.Strings("raw", row),
				zap.Error(err),
			)
			continue
		}
		res.Entries = append(res.Entries, *entry)
	}

	log.Info("mapper: table mapped",
		zap.Int("entries", len(res.Entries)),
		zap.Int("rejected_rows", res.RejectedRows),
	)
	return res, nil
}

// resolve builds the column mapping for one header row. Resolution order per
// canonical field: configured fixed mapping, learned fixed mapping, then
// alias match (exact pass over the ordered alias list, then substring pass).
// A column already claimed by another field is not considered again.
func resolve(header []string, opts Options) (ColumnMapping, []string) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	mapping := make(ColumnMapping)
	claimed := make(map[int]bool)
	var missing []string

	fields := make([]string, 0, len(requiredFields)+len(optionalFields))
	fields = append(fields, requiredFields...)
	fields = append(fields, optionalFields...)

	for _, field := range fields {
		if idx, ok := fixedColumn(opts.FixedMapping, field, len(header), claimed); ok {
			mapping[field] = idx
			claimed[idx] = true
			continue
		}
		if opts.Profile != nil {
			if idx, ok := fixedColumn(opts.Profile.FixedMapping, field, len(header), claimed); ok {
				mapping[field] = idx
				claimed[idx] = true
				continue
			}
		}

		aliases := append(append([]string(nil), opts.Aliases[field]...), builtinAliases[field]...)
		if idx, ok := matchAlias(normalized, aliases, claimed); ok {
			mapping[field] = idx
			claimed[idx] = true
			continue
		}

		if isRequired(field) {
			missing = append(missing, field)
		}
	}
	return mapping, missing
}

// fixedColumn validates a pinned column index against the current header
// width and the claimed set. A stale index past the header edge falls
// through to alias resolution rather than failing the field.
func fixedColumn(m map[string]int, field string, width int, claimed map[int]bool) (int, bool) {
	idx, ok := m[field]
	if !ok || idx < 0 || idx >= width || claimed[idx] {
		return 0, false
	}
	return idx, true
}

// matchAlias finds the column for an ordered alias list: every alias is
// tried for an exact header match before any substring matching happens.
func matchAlias(normalized []string, aliases []string, claimed map[int]bool) (int, bool) {
	for _, alias := range aliases {
		a := normalizeHeader(alias)
		for idx, h := range normalized {
			if !claimed[idx] && h == a {
				return idx, true
			}
		}
	}
	for _, alias := range aliases {
		a := normalizeHeader(alias)
		for idx, h := range normalized {
			if !claimed[idx] && h != "" && strings.Contains(h, a) {
				return idx, true
			}
		}
	}
	return 0, false
}

func isRequired(field string) bool {
	for _, f := range requiredFields {
		if f == field {
			return true
		}
	}
	return false
}

// extractRow builds one commission entry. Required-field faults return an
// error (the caller counts the row as rejected); optional-field faults
// degrade to defaults.
func extractRow(header []string, row []string, mapping ColumnMapping, opts Options) (*model.CommissionEntry, error) {
	cell := func(field string) (string, bool) {
		idx, ok := mapping[field]
		if !ok || idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}

	rawID, ok := cell(FieldMemberID)
	memberID := strings.TrimSpace(rawID)
	if !ok || memberID == "" {
		return nil, fmt.Errorf("missing member id")
	}

	rawDate, ok := cell(FieldEffectiveDate)
	if !ok {
		return nil, fmt.Errorf("missing effective date")
	}
	effective, err := parseDate(rawDate)
	if err != nil {
		return nil, err
	}

	rawAmount, ok := cell(FieldPayout)
	if !ok {
		return nil, fmt.Errorf("missing payout")
	}
	paid, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	entry := &model.CommissionEntry{
		MemberID:      memberID,
		EffectiveDate: effective,
		PaidAmount:    paid,
		CarrierCode:   opts.Carrier,
		SourceFile:    opts.SourceFile,
		RawFields:     rawFields(header, row),
	}

	optional := func(field string) string {
		v, _ := cell(field)
		return strings.TrimSpace(v)
	}
	entry.FirstName = optional(FieldFirstName)
	entry.LastName = optional(FieldLastName)
	entry.MemberName = optional(FieldMemberName)
	entry.ProductName = optional(FieldProductName)
	entry.PlanName = optional(FieldPlanName)

	return entry, nil
}

// rawFields captures the original header -> raw cell pairs for audit.
func rawFields(header []string, row []string) map[string]string {
	raw := make(map[string]string, len(header))
	for i, h := range header {
		if i >= len(row) {
			break
		}
		key := strings.TrimSpace(h)
		if key == "" {
			continue
		}
		raw[key] = row[i]
	}
	return raw
}
