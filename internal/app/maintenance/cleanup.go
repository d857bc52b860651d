package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
	"github.com/jeromedesantos12/app-circle/pkg/logger"
)

const defaultSweepSpec = "@hourly"

// Cleaner sweeps the upload directory for files no longer referenced by any
// thread, reply, or user row and removes them on a schedule.
type Cleaner struct {
	db      *gorm.DB
	storage *uploads.Storage
	cron    *cron.Cron
	log     *zap.Logger

	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron expression for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, storage *uploads.Storage, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:       db,
		storage:  storage,
		schedule: defaultSweepSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil || c.storage == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.SweepOrphanedUploads(context.Background()); err != nil {
			c.log.Warn("upload sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the sweep immediately. Primarily used in tests and during
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.db != nil && c.storage != nil {
		if _, err := c.SweepOrphanedUploads(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// SweepOrphanedUploads removes stored files not referenced by any row, returning
// the number removed.
func (c *Cleaner) SweepOrphanedUploads(ctx context.Context) (int, error) {
	if c.db == nil || c.storage == nil {
		return 0, errors.New("sweep uploads: db and storage are required")
	}

	stored, err := c.storage.List()
	if err != nil {
		return 0, fmt.Errorf("sweep uploads: list files: %w", err)
	}
	if len(stored) == 0 {
		return 0, nil
	}

	referenced, err := c.referencedPaths(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range stored {
		if _, ok := referenced[path]; ok {
			continue
		}
		c.storage.Remove(path)
		removed++
	}

	if removed > 0 {
		c.log.Info("removed orphaned uploads", zap.Int("count", removed))
	}
	return removed, nil
}

func (c *Cleaner) referencedPaths(ctx context.Context) (map[string]struct{}, error) {
	referenced := make(map[string]struct{})

	var threadImages []string
	err := c.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("image IS NOT NULL").
		Pluck("image", &threadImages).Error
	if err != nil {
		return nil, fmt.Errorf("sweep uploads: thread images: %w", err)
	}

	var replyImages []string
	err = c.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("image IS NOT NULL").
		Pluck("image", &replyImages).Error
	if err != nil {
		return nil, fmt.Errorf("sweep uploads: reply images: %w", err)
	}

	var photos []string
	err = c.db.WithContext(ctx).
		Model(&models.User{}).
		Where("photo_profile <> ''").
		Pluck("photo_profile", &photos).Error
	if err != nil {
		return nil, fmt.Errorf("sweep uploads: profile photos: %w", err)
	}

	for _, group := range [][]string{threadImages, replyImages, photos} {
		for _, path := range group {
			referenced[path] = struct{}{}
		}
	}
	return referenced, nil
}
