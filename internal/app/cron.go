package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	pkgcron "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/cron"
	pkgredis "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/redis"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/taskqueue"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, rc *pkgredis.Client, cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")
	tasks := taskqueue.NewService(rc)

	sched.Register(pkgcron.Job{
		Name:        "purge_finished_tasks",
		Description: "remove finished background tasks older than a day",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().Add(-24 * time.Hour).UnixMilli()
			if err := tasks.DeleteFinished(ctx, cutoff); err != nil {
				cronLogger.Warn("task purge failed", zap.Error(err))
				return err
			}
			cronLogger.Info("finished tasks purged")
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_orphan_annotations",
		Description: "delete annotated copies whose source PDF is gone",
		Interval:    6 * time.Hour,
		Fn: func(ctx context.Context) error {
			dir := cfg.UploadDir()
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			removed := 0
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() || !strings.HasPrefix(name, "annotated_") {
					continue
				}
				source := strings.TrimPrefix(name, "annotated_")
				if _, err := os.Stat(filepath.Join(dir, source)); err == nil {
					continue
				}
				if err := os.Remove(filepath.Join(dir, name)); err != nil {
					cronLogger.Warn("orphan annotation removal failed", zap.String("file", name), zap.Error(err))
					continue
				}
				removed++
			}
			if removed > 0 {
				cronLogger.Info(fmt.Sprintf("removed %d orphan annotated copies", removed))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_stale_audio",
		Description: "delete generated podcast audio older than 7 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			dir := cfg.AudioDir()
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			cutoff := time.Now().AddDate(0, 0, -7)
			removed := 0
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
					continue
				}
				info, err := entry.Info()
				if err != nil || info.ModTime().After(cutoff) {
					continue
				}
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					cronLogger.Warn("stale audio removal failed", zap.String("file", entry.Name()), zap.Error(err))
					continue
				}
				removed++
			}
			if removed > 0 {
				cronLogger.Info(fmt.Sprintf("removed %d stale audio files", removed))
			}
			return nil
		},
	})
}
