// Package cleanup は期限切れデータの定期削除ジョブを提供する。
// 期限切れセッションと、保持期間を超えて期限切れのままの共有リンクを削除する。
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は期限切れ共有リンクを残しておく日数のデフォルト値。
const DefaultRetentionDays = 30

// DefaultInterval はintervalに0以下が渡された場合の実行間隔。
const DefaultInterval = 24 * time.Hour

// SessionPurger は期限切れセッションを削除する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// LinkPurger はcutoffより前に期限切れとなった共有リンクを削除する。
type LinkPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は期限切れデータの削除ジョブ。
// 削除は冪等であり、対象がない場合もエラーにならない。
type CleanupJob struct {
	sessions      SessionPurger
	links         LinkPurger
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 期限切れ共有リンクの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPurger, links LinkPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:      sessions,
		links:         links,
		logger:        logger,
		now:           time.Now,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run は期限切れセッションと保持期間を過ぎた共有リンクを削除する。
// 片方が失敗してももう片方は実行し、発生したエラーをまとめて返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()

	var errs []error

	sessionCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("failed to delete expired sessions: %w", err))
	}

	retention := j.RetentionDays
	if retention < 0 {
		retention = 0
	}
	cutoff := start.AddDate(0, 0, -retention)
	linkCount, err := j.links.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("期限切れ共有リンクの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		errs = append(errs, fmt.Errorf("failed to delete expired shared links: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessionCount),
		slog.Int64("deleted_links", linkCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回Runを実行し、以降interval間隔で繰り返す。
// コンテキストがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
