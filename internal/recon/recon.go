// Package recon sequences the reconciliation pipeline per carrier batch and
// aggregates the results for reporting.
package recon

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/learning"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/mapper"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/match"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/variance"
)

// Statement is one raw statement table belonging to a carrier batch.
type Statement struct {
	SourceFile string
	Rows       [][]string
}

// CarrierBatch is the unit of work: every statement received for one
// carrier in this run, plus its per-carrier configuration.
type CarrierBatch struct {
	CarrierCode      string
	Statements       []Statement
	TableIdentifiers []string
	Aliases          map[string][]string
	// FixedMapping is the configured column pinning for this carrier,
	// consulted by the mapper ahead of the learned profile.
	FixedMapping map[string]int
}

// Reconciler runs carrier batches through the mapper, matching and variance
// engines, updating the format-learning store along the way.
type Reconciler struct {
	store         learning.Store
	tolerance     variance.Tolerance
	maxConcurrent int
}

// New creates a Reconciler. maxConcurrent bounds parallel carrier batches;
// values below 1 run batches sequentially.
func New(store learning.Store, tol variance.Tolerance, maxConcurrent int) *Reconciler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Reconciler{store: store, tolerance: tol, maxConcurrent: maxConcurrent}
}

// Run reconciles every carrier batch against the enrollment index. Carriers
// are independent: a schema failure in one statement marks that carrier
// entry failed and processing continues. The returned report always carries
// a failures section; all-carriers-failed is still a report, not an error.
func (r *Reconciler) Run(ctx context.Context, batches []CarrierBatch, idx *match.Index) (*model.ReconciliationReport, error) {
	started := time.Now()
	report := &model.ReconciliationReport{
		RunID:      uuid.New().String(),
		StartedAt:  started.UTC(),
		Categories: make(map[model.DiscrepancyCategory]int),
		Failures:   []model.CarrierFailure{},
	}

	log := zap.L().With(zap.String("run_id", report.RunID))
	log.Info("recon: starting run", zap.Int("carriers", len(batches)))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for _, batch := range batches {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			summary, failures := r.runCarrier(gCtx, batch, idx)

			mu.Lock()
			defer mu.Unlock()
			if summary != nil {
				report.Carriers = append(report.Carriers, *summary)
			}
			report.Failures = append(report.Failures, failures...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "recon: run cancelled")
	}

	finalize(report)
	report.Duration = time.Since(started)

	log.Info("recon: run complete",
		zap.Int("carriers", len(report.Carriers)),
		zap.Int("failures", len(report.Failures)),
		zap.String("total_paid", report.TotalPaid.StringFixed(2)),
		zap.String("total_variance", report.TotalVariance.StringFixed(2)),
	)
	return report, nil
}

// runCarrier executes the mapper -> learning -> match -> variance pipeline
// for one carrier. It never returns an error: statement-level faults become
// failure entries and the rest of the batch proceeds.
func (r *Reconciler) runCarrier(ctx context.Context, batch CarrierBatch, idx *match.Index) (*model.CarrierSummary, []model.CarrierFailure) {
	log := zap.L().With(zap.String("carrier", batch.CarrierCode))

	profile, err := r.store.GetProfile(ctx, batch.CarrierCode)
	if err != nil {
		log.Warn("recon: profile lookup failed, proceeding without learned mapping", zap.Error(err))
	}

	var (
		entries      []model.CommissionEntry
		rejectedRows int
		failures     []model.CarrierFailure
		extracted    int
	)

	for _, stmt := range batch.Statements {
		// The refreshed profile makes a mapping learned from one statement
		// available to the rest of the batch.
		res, updated, fail := r.processStatement(ctx, batch, stmt, profile)
		if updated != nil {
			profile = updated
		}
		if fail != nil {
			failures = append(failures, *fail)
			continue
		}
		extracted++
		entries = append(entries, res.Entries...)
		rejectedRows += res.RejectedRows
	}

	if extracted == 0 {
		// Nothing parsed for this carrier; its enrollments still belong to
		// the failure narrative, not to a missing_commission flood.
		return nil, failures
	}

	results := match.Match(entries, idx, batch.CarrierCode)

	summary := &model.CarrierSummary{
		CarrierCode:   batch.CarrierCode,
		TotalPaid:     decimal.Zero,
		TotalExpected: decimal.Zero,
		Categories:    make(map[model.DiscrepancyCategory]int),
		RejectedRows:  rejectedRows,
	}
	for _, mr := range results {
		rec := variance.Classify(mr, r.tolerance)
		summary.Discrepancies = append(summary.Discrepancies, rec)
		summary.TotalPaid = summary.TotalPaid.Add(rec.ActualAmount)
		summary.TotalExpected = summary.TotalExpected.Add(rec.ExpectedAmount)
		summary.Categories[rec.Category]++
	}
	summary.TotalVariance = summary.TotalPaid.Sub(summary.TotalExpected)

	return summary, failures
}

// processStatement maps a single statement table and records the extraction
// outcome on the carrier's learning profile. The second return is the
// updated profile.
func (r *Reconciler) processStatement(ctx context.Context, batch CarrierBatch, stmt Statement, profile *model.CarrierFormatProfile) (*mapper.Result, *model.CarrierFormatProfile, *model.CarrierFailure) {
	log := zap.L().With(
		zap.String("carrier", batch.CarrierCode),
		zap.String("file", stmt.SourceFile),
	)

	if len(stmt.Rows) == 0 {
		updated := r.recordOutcome(ctx, batch.CarrierCode, learning.Outcome{Success: false})
		return nil, updated, &model.CarrierFailure{
			CarrierCode: batch.CarrierCode,
			SourceFile:  stmt.SourceFile,
			Reason:      "empty statement",
		}
	}

	headerIdx := 0
	if len(batch.TableIdentifiers) > 0 {
		if found, ok := mapper.DetectTable(stmt.Rows, batch.TableIdentifiers); ok {
			headerIdx = found
		} else {
			log.Warn("recon: table identifiers not found, assuming first row is header")
		}
	}
	header := stmt.Rows[headerIdx]
	dataRows := stmt.Rows[headerIdx+1:]

	docType, quality := mapper.ClassifyStructure(header, dataRows)

	res, err := mapper.Map(header, dataRows, mapper.Options{
		Carrier:      batch.CarrierCode,
		SourceFile:   stmt.SourceFile,
		FixedMapping: batch.FixedMapping,
		Profile:      profile,
		Aliases:      batch.Aliases,
	})
	if err != nil {
		var schemaErr *mapper.SchemaError
		reason := err.Error()
		if errors.As(err, &schemaErr) {
			log.Warn("recon: statement rejected by schema", zap.Strings("missing", schemaErr.Missing))
		} else {
			log.Error("recon: statement mapping failed", zap.Error(err))
		}
		updated := r.recordOutcome(ctx, batch.CarrierCode, learning.Outcome{
			Success: false,
			Hints: &learning.StructureHints{
				DocumentType: docType,
				DataQuality:  quality,
			},
		})
		return nil, updated, &model.CarrierFailure{
			CarrierCode: batch.CarrierCode,
			SourceFile:  stmt.SourceFile,
			Reason:      reason,
		}
	}

	updated := r.recordOutcome(ctx, batch.CarrierCode, learning.Outcome{
		Success:          true,
		ObservedPatterns: observedIDs(res.Entries),
		Hints: &learning.StructureHints{
			DocumentType:           docType,
			DataQuality:            quality,
			PrimaryIdentifierField: primaryIdentifier(header, res.Mapping),
			// The resolved mapping is recorded so the next statement with
			// this layout extracts even if its header cells are unreadable.
			FixedMapping: map[string]int(res.Mapping),
		},
	})
	return res, updated, nil
}

// recordOutcome writes a learning update and returns the updated profile;
// store faults are logged, never allowed to fail the run.
func (r *Reconciler) recordOutcome(ctx context.Context, carrier string, o learning.Outcome) *model.CarrierFormatProfile {
	p, err := r.store.RecordOutcome(ctx, carrier, o)
	if err != nil {
		zap.L().Warn("recon: learning update failed",
			zap.String("carrier", carrier),
			zap.Error(err),
		)
		return nil
	}
	return p
}

// observedIDs samples member identifiers for the profile's pattern window.
func observedIDs(entries []model.CommissionEntry) []string {
	ids := make([]string, 0, len(entries))
	for i := range entries {
		if len(ids) == model.MaxObservedPatterns {
			break
		}
		ids = append(ids, entries[i].MemberID)
	}
	return ids
}

// primaryIdentifier reports the raw header name backing the member_id field.
func primaryIdentifier(header []string, mapping mapper.ColumnMapping) string {
	idx, ok := mapping[mapper.FieldMemberID]
	if !ok || idx >= len(header) {
		return ""
	}
	return header[idx]
}

// finalize merges per-carrier summaries into run totals, in a stable order.
func finalize(report *model.ReconciliationReport) {
	sort.Slice(report.Carriers, func(i, j int) bool {
		return report.Carriers[i].CarrierCode < report.Carriers[j].CarrierCode
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		if report.Failures[i].CarrierCode != report.Failures[j].CarrierCode {
			return report.Failures[i].CarrierCode < report.Failures[j].CarrierCode
		}
		return report.Failures[i].SourceFile < report.Failures[j].SourceFile
	})

	report.TotalPaid = decimal.Zero
	report.TotalExpected = decimal.Zero
	for _, c := range report.Carriers {
		report.TotalPaid = report.TotalPaid.Add(c.TotalPaid)
		report.TotalExpected = report.TotalExpected.Add(c.TotalExpected)
		for cat, n := range c.Categories {
			report.Categories[cat] += n
		}
	}
	report.TotalVariance = report.TotalPaid.Sub(report.TotalExpected)
}
