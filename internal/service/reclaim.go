package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/metrics"
	"github.com/robfig/cron/v3"
)

// scheduledMinAge keeps scheduled sweeps away from uploads that are staged in
// the directory but whose recipe is not persisted yet.
const scheduledMinAge = 15 * time.Minute

// ReclaimReport summarizes one orphan sweep.
type ReclaimReport struct {
	Scanned int
	Removed int
	Failed  int
	// Err is set when the directory could not be read and the sweep aborted.
	Err error
}

// Reclaimer deletes files in the local uploads directory that no recipe
// references. It only makes sense for the local photo backend.
type Reclaimer struct {
	dir     string
	recipes IRecipeService
	log     *logger.Logger
}

// NewReclaimer creates a reclaimer for dir.
func NewReclaimer(dir string, recipes IRecipeService, log *logger.Logger) *Reclaimer {
	return &Reclaimer{
		dir:     dir,
		recipes: recipes,
		log:     log.With("service", "Reclaimer", "dir", dir),
	}
}

// Reclaim removes every regular file in the directory whose name is not in
// refs. Single pass in directory order; failures are logged and counted.
func (r *Reclaimer) Reclaim(ctx context.Context, refs map[string]struct{}) ReclaimReport {
	return r.reclaim(ctx, refs, 0)
}

func (r *Reclaimer) reclaim(ctx context.Context, refs map[string]struct{}, minAge time.Duration) ReclaimReport {
	var report ReclaimReport
	cutoff := time.Now().Add(-minAge)

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.log.Error("failed to read uploads directory", "error", err)
		report.Err = fmt.Errorf("failed to read uploads directory: %w", err)
		return report
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		report.Scanned++
		name := entry.Name()
		if _, ok := refs[name]; ok {
			continue
		}
		if minAge > 0 {
			if info, err := entry.Info(); err == nil && info.ModTime().After(cutoff) {
				continue
			}
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil {
			report.Failed++
			r.log.Error("failed to remove orphaned photo", "file", name, "error", err)
			continue
		}
		report.Removed++
		r.log.Info("removed orphaned photo", "file", name)
	}
	return report
}

// Run sweeps using the current recipe references.
func (r *Reclaimer) Run(ctx context.Context) ReclaimReport {
	return r.run(ctx, 0)
}

func (r *Reclaimer) run(ctx context.Context, minAge time.Duration) ReclaimReport {
	report := r.reclaim(ctx, r.recipes.PhotoRefs(ctx), minAge)
	metrics.RecordOrphanSweep(report.Removed, report.Failed, report.Err)
	if report.Err == nil {
		r.log.Info("orphan sweep finished", "scanned", report.Scanned, "removed", report.Removed, "failed", report.Failed)
	}
	return report
}

// Schedule runs the sweep on a cron spec (standard five fields or
// descriptors like "@every 6h"). A run still in progress makes the next one
// skip, and files younger than scheduledMinAge are left alone. The caller
// starts and stops the returned cron.
func (r *Reclaimer) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { r.run(context.Background(), scheduledMinAge) }); err != nil {
		return nil, fmt.Errorf("invalid orphan sweep schedule %q: %w", spec, err)
	}
	r.log.Info("scheduled orphan sweep", "schedule", spec)
	return c, nil
}
