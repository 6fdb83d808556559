package service

import (
	"bitwise74/account-api/internal/metrics"
	"bitwise74/account-api/internal/model"
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountCleanup periodically deletes accounts that didn't verify their email
// within maxAge of registering. It returns immediately, the work happens in
// a goroutine that stops with ctx. A zero maxAge disables it.
func AccountCleanup(ctx context.Context, every, maxAge time.Duration, db *gorm.DB) {
	if every <= 0 || maxAge <= 0 {
		zap.L().Debug("Account cleanup disabled")
		return
	}

	ticker := time.NewTicker(every)

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", every), zap.Duration("max_age", maxAge))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := CleanupUnverified(ctx, db, maxAge); err != nil {
					zap.L().Error("Failed to cleanup unverified accounts", zap.Error(err))
				}
			}
		}
	}()
}

// CleanupUnverified deletes unverified accounts older than maxAge and returns
// how many were removed
func CleanupUnverified(ctx context.Context, db *gorm.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	res := db.WithContext(ctx).
		Where("email_verified = ? AND created_at < ?", false, cutoff).
		Delete(&model.User{})
	if res.Error != nil {
		return 0, storeErr("cleanup unverified", res.Error)
	}

	if res.RowsAffected > 0 {
		metrics.AccountsCleaned.Add(float64(res.RowsAffected))
		zap.L().Info("Removed unverified accounts", zap.Int64("count", res.RowsAffected))
	}

	return res.RowsAffected, nil
}
