// Package report exports the aggregate reconciliation report for human
// review. Layout is deliberately plain; templated formatting lives outside
// this system.
package report

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// WriteXLSX writes the report to path with a Summary sheet and one
// Discrepancies sheet covering every carrier.
func WriteXLSX(rep *model.ReconciliationReport, path string) error {
	f := xlsx.NewFile()

	if err := writeSummary(f, rep); err != nil {
		return err
	}
	if err := writeDiscrepancies(f, rep); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeSummary(f *xlsx.File, rep *model.ReconciliationReport) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addRow(sheet, "Run ID", rep.RunID)
	addRow(sheet, "Started", rep.StartedAt.Format("2006-01-02 15:04:05 MST"))
	addRow(sheet, "Total Paid", rep.TotalPaid.StringFixed(2))
	addRow(sheet, "Total Expected", rep.TotalExpected.StringFixed(2))
	addRow(sheet, "Total Variance", rep.TotalVariance.StringFixed(2))
	addRow(sheet)

	addRow(sheet, "Category", "Count")
	for _, cat := range []model.DiscrepancyCategory{
		model.CategoryExactMatch,
		model.CategoryOverpayment,
		model.CategoryUnderpayment,
		model.CategoryUnexpectedPayment,
		model.CategoryMissingCommission,
	} {
		addRow(sheet, string(cat), itoa(rep.Categories[cat]))
	}
	addRow(sheet)

	addRow(sheet, "Carrier", "Paid", "Expected", "Variance", "Rejected Rows")
	for _, c := range rep.Carriers {
		addRow(sheet, c.CarrierCode,
			c.TotalPaid.StringFixed(2),
			c.TotalExpected.StringFixed(2),
			c.TotalVariance.StringFixed(2),
			itoa(c.RejectedRows),
		)
	}
	addRow(sheet)

	addRow(sheet, "Failed Carrier", "File", "Reason")
	for _, fail := range rep.Failures {
		addRow(sheet, fail.CarrierCode, fail.SourceFile, fail.Reason)
	}
	return nil
}

func writeDiscrepancies(f *xlsx.File, rep *model.ReconciliationReport) error {
	sheet, err := f.AddSheet("Discrepancies")
	if err != nil {
		return eris.Wrap(err, "report: add discrepancies sheet")
	}

	addRow(sheet, "Carrier", "Policy ID", "Member", "Expected", "Actual",
		"Variance", "Variance %", "Category", "Source File")
	for _, c := range rep.Carriers {
		for _, d := range c.Discrepancies {
			pct := ""
			if d.VariancePercent != nil {
				pct = d.VariancePercent.StringFixed(2)
			}
			addRow(sheet, d.CarrierCode, d.PolicyID, d.MemberName,
				d.ExpectedAmount.StringFixed(2),
				d.ActualAmount.StringFixed(2),
				d.VarianceAmount.StringFixed(2),
				pct, string(d.Category), d.SourceFile,
			)
		}
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
