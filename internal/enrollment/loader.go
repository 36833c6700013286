// Package enrollment loads the expected-commission book consumed by the
// matching engine.
package enrollment

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// row mirrors the enrollment CSV schema. Everything decodes as a string
// first so one malformed row never aborts the load.
type row struct {
	PolicyID           string `csv:"policy_id"`
	EffectiveDate      string `csv:"effective_date"`
	Carrier            string `csv:"carrier"`
	ExpectedCommission string `csv:"expected_commission"`
	MemberName         string `csv:"member_name,omitempty"`
	PlanName           string `csv:"plan_name,omitempty"`
	AnnualPremium      string `csv:"annual_premium,omitempty"`
	Status             string `csv:"status,omitempty"`
}

var enrollmentDateFormats = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

// requiredColumns must all appear in the CSV header. Without this check a
// renamed column would fail every row individually and the load would come
// back empty instead of erroring.
var requiredColumns = []string{"policy_id", "effective_date", "carrier", "expected_commission"}

// Load reads enrollment records from a CSV file, preserving file order.
// Malformed rows are skipped with a warning; a missing required column fails
// the load.
func Load(path string) ([]model.EnrollmentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrollment: open %s", path)
	}
	defer f.Close()

	return Read(f, path)
}

// Read decodes enrollment records from r. The name is used for logging only.
func Read(r io.Reader, name string) ([]model.EnrollmentRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, eris.Wrapf(err, "enrollment: read header %s", name)
	}

	present := make(map[string]bool, len(dec.Header()))
	for _, h := range dec.Header() {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("enrollment: %s: missing required columns: %s",
			name, strings.Join(missing, ", "))
	}

	log := zap.L().With(zap.String("file", name))

	var records []model.EnrollmentRecord
	skipped := 0
	for line := 2; ; line++ {
		var rw row
		if err := dec.Decode(&rw); err == io.EOF {
			break
		} else if err != nil {
			skipped++
			log.Warn("enrollment: skipping unreadable row", zap.Int("line", line), zap.Error(err))
			continue
		}

		rec, err := convert(rw)
		if err != nil {
			skipped++
			log.Warn("enrollment: skipping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	log.Info("enrollment: loaded",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
	)
	return records, nil
}

func convert(rw row) (model.EnrollmentRecord, error) {
	var rec model.EnrollmentRecord

	policyID := strings.TrimSpace(rw.PolicyID)
	if policyID == "" {
		return rec, eris.New("enrollment: empty policy_id")
	}
	carrier := strings.TrimSpace(rw.Carrier)
	if carrier == "" {
		return rec, eris.New("enrollment: empty carrier")
	}

	effective, err := parseDate(rw.EffectiveDate)
	if err != nil {
		return rec, err
	}

	expected, err := parseAmount(rw.ExpectedCommission)
	if err != nil {
		return rec, err
	}

	rec = model.EnrollmentRecord{
		PolicyID:       policyID,
		EffectiveDate:  effective,
		ExpectedAmount: expected,
		CarrierCode:    strings.ToLower(carrier),
		MemberName:     strings.TrimSpace(rw.MemberName),
		PlanName:       strings.TrimSpace(rw.PlanName),
	}
	if premium := strings.TrimSpace(rw.AnnualPremium); premium != "" {
		// Display-only field; a bad premium does not reject the row.
		if d, err := parseAmount(premium); err == nil {
			rec.AnnualPremium = d
		}
	}
	return rec, nil
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range enrollmentDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, eris.Errorf("enrollment: unparseable effective_date %q", raw)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Errorf("enrollment: unparseable amount %q", raw)
	}
	return d, nil
}
