package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/statement"
)

var (
	watchDocs     string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a statements directory and reconcile when files change",
	Long:  "Polls the directory on a fixed interval and runs a full reconciliation whenever a statement file appears or its modification time changes. Polling is deliberate: statement drops typically land on network shares where inotify events are unreliable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		interval := watchInterval
		if interval == 0 {
			interval = time.Duration(cfg.Watch.IntervalSecs) * time.Second
		}

		log := zap.L().With(zap.String("dir", watchDocs))
		log.Info("watch: started", zap.Duration("interval", interval))

		seen := make(map[string]time.Time)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			changed, err := detectChanges(watchDocs, seen)
			if err != nil {
				log.Warn("watch: scan failed", zap.Error(err))
			} else if changed {
				log.Info("watch: statements changed, reconciling")
				rep, err := runReconciliation(ctx, st, watchDocs, cfg.Enrollment.Path)
				if err != nil {
					log.Error("watch: reconciliation failed", zap.Error(err))
				} else {
					log.Info("watch: reconciliation complete",
						zap.String("run_id", rep.RunID),
						zap.Int("carriers", len(rep.Carriers)),
						zap.Int("failures", len(rep.Failures)),
					)
				}
			}

			select {
			case <-ctx.Done():
				log.Info("watch: stopping")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchDocs, "docs", "", "directory of carrier statements (required)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default from config)")
	_ = watchCmd.MarkFlagRequired("docs")
	rootCmd.AddCommand(watchCmd)
}

// detectChanges reports whether any statement file is new or has a modified
// timestamp since the previous scan, updating seen in place.
func detectChanges(dir string, seen map[string]time.Time) (bool, error) {
	files, err := statement.ScanDirectory(dir)
	if err != nil {
		return false, err
	}

	changed := false
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if prev, ok := seen[path]; !ok || !prev.Equal(info.ModTime()) {
			changed = true
		}
		seen[path] = info.ModTime()
	}
	return changed, nil
}
