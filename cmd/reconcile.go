package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/enrollment"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/learning"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/match"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/recon"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/report"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/statement"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/variance"
)

var (
	reconcileDocs       string
	reconcileEnrollment string
	reconcileOut        string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile every commission statement in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		enrollmentPath := reconcileEnrollment
		if enrollmentPath == "" {
			enrollmentPath = cfg.Enrollment.Path
		}

		rep, err := runReconciliation(ctx, st, reconcileDocs, enrollmentPath)
		if err != nil {
			return err
		}

		if reconcileOut != "" {
			if err := report.WriteXLSX(rep, reconcileOut); err != nil {
				return eris.Wrap(err, "export report")
			}
			zap.L().Info("report exported", zap.String("path", reconcileOut))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileDocs, "docs", "", "directory of carrier statements (required)")
	reconcileCmd.Flags().StringVar(&reconcileEnrollment, "enrollment", "", "enrollment CSV path (default from config)")
	reconcileCmd.Flags().StringVar(&reconcileOut, "out", "", "write an xlsx report to this path")
	_ = reconcileCmd.MarkFlagRequired("docs")
	rootCmd.AddCommand(reconcileCmd)
}

// runReconciliation is the shared one-shot pipeline used by the reconcile,
// watch and serve commands.
func runReconciliation(ctx context.Context, st learning.Store, docsDir, enrollmentPath string) (*model.ReconciliationReport, error) {
	records, err := enrollment.Load(enrollmentPath)
	if err != nil {
		return nil, eris.Wrap(err, "load enrollment")
	}
	idx := match.NewIndex(records)

	files, err := statement.ScanDirectory(docsDir)
	if err != nil {
		return nil, eris.Wrap(err, "scan statements")
	}

	batches, err := buildBatches(files)
	if err != nil {
		return nil, err
	}

	r := recon.New(st, toleranceFromConfig(), cfg.Recon.MaxConcurrentCarriers)
	rep, err := r.Run(ctx, batches, idx)
	if err != nil {
		return nil, eris.Wrap(err, "reconciliation run")
	}
	return rep, nil
}

// buildBatches reads each statement file and groups tables by carrier code.
// Unreadable files become failure entries downstream, not hard errors here;
// they are simply skipped with a warning so the batch survives one bad file.
func buildBatches(files []string) ([]recon.CarrierBatch, error) {
	byCarrier := make(map[string]*recon.CarrierBatch)
	var order []string

	for _, path := range files {
		carrier := statement.IdentifyCarrier(path)
		table, err := statement.Read(path)
		if err != nil {
			zap.L().Warn("skipping unreadable statement",
				zap.String("file", path),
				zap.Error(err),
			)
			continue
		}

		batch, ok := byCarrier[carrier]
		if !ok {
			carrierCfg := cfg.Carriers[carrier]
			batch = &recon.CarrierBatch{
				CarrierCode:      carrier,
				TableIdentifiers: carrierCfg.TableIdentifiers,
				Aliases:          carrierCfg.Aliases,
				FixedMapping:     carrierCfg.FixedMapping,
			}
			byCarrier[carrier] = batch
			order = append(order, carrier)
		}
		batch.Statements = append(batch.Statements, recon.Statement{
			SourceFile: table.SourceFile,
			Rows:       table.Rows,
		})
	}

	batches := make([]recon.CarrierBatch, 0, len(order))
	for _, carrier := range order {
		batches = append(batches, *byCarrier[carrier])
	}
	return batches, nil
}

func toleranceFromConfig() variance.Tolerance {
	return variance.Tolerance{
		PercentThreshold:  decimal.NewFromFloat(cfg.Tolerance.PercentThreshold),
		AbsoluteThreshold: decimal.NewFromFloat(cfg.Tolerance.AbsoluteThreshold),
		Mode:              variance.Mode(cfg.Tolerance.Mode),
	}
}
