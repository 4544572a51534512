package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// PostgresProgressRepo はPostgreSQLを使用した視聴進捗リポジトリ。
type PostgresProgressRepo struct {
	db *sql.DB
}

// NewPostgresProgressRepo はPostgresProgressRepoを生成する。
func NewPostgresProgressRepo(db *sql.DB) *PostgresProgressRepo {
	return &PostgresProgressRepo{db: db}
}

// RecordProgress は視聴話数をUPSERTし、同一トランザクションでmarkedAnimeにも追加する。
// 話数の後退も受け付ける。
func (r *PostgresProgressRepo) RecordProgress(ctx context.Context, userID, animeID string, episode int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. ongoing_entriesをUPSERT
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ongoing_entries (user_id, anime_id, last_watched_episode, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, anime_id)
		 DO UPDATE SET last_watched_episode = EXCLUDED.last_watched_episode, updated_at = EXCLUDED.updated_at`,
		userID, animeID, episode,
	)
	if isForeignKeyViolation(err) {
		return ErrUserMissing
	}
	if err != nil {
		return fmt.Errorf("failed to upsert ongoing entry: %w", err)
	}

	// 2. markedAnimeに追加（既存なら何もしない）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO list_entries (user_id, list_type, anime_id, added_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, list_type, anime_id) DO NOTHING`,
		userID, string(model.ListTypeMarkedAnime), animeID,
	)
	if err != nil {
		return fmt.Errorf("failed to add marked entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PromoteToCompleted はongoingAnimeのエントリを削除し、completedAnimeへ追記する。
// 削除できた場合のみ追記するため、同時実行時も二重に追記されない。
func (r *PostgresProgressRepo) PromoteToCompleted(ctx context.Context, userID, animeID string, episode int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. 記録済みの話数が一致する場合のみ削除
	var lastWatched int
	err = tx.QueryRowContext(ctx,
		`DELETE FROM ongoing_entries
		 WHERE user_id = $1 AND anime_id = $2 AND last_watched_episode = $3
		 RETURNING last_watched_episode`,
		userID, animeID, episode,
	).Scan(&lastWatched)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete ongoing entry: %w", err)
	}

	// 2. 完了履歴に追記
	_, err = tx.ExecContext(ctx,
		`INSERT INTO completed_entries (user_id, anime_id, last_watched_episode, completed_at)
		 VALUES ($1, $2, $3, now())`,
		userID, animeID, lastWatched,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append completed entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ClearProgress はongoingAnimeのエントリを削除する。存在しない場合は何もしない。
func (r *PostgresProgressRepo) ClearProgress(ctx context.Context, userID, animeID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ongoing_entries WHERE user_id = $1 AND anime_id = $2`,
		userID, animeID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

// ListOngoing は視聴中のエントリを更新日時の新しい順に返す。
func (r *PostgresProgressRepo) ListOngoing(ctx context.Context, userID string) ([]model.OngoingEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT anime_id, last_watched_episode, updated_at
		 FROM ongoing_entries
		 WHERE user_id = $1
		 ORDER BY updated_at DESC, anime_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing entries: %w", err)
	}
	defer rows.Close()

	entries := []model.OngoingEntry{}
	for rows.Next() {
		var e model.OngoingEntry
		if err := rows.Scan(&e.AnimeID, &e.LastWatchedEpisode, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ongoing entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ongoing entries: %w", err)
	}
	return entries, nil
}

// ListCompleted は完了履歴を追記順に返す。
func (r *PostgresProgressRepo) ListCompleted(ctx context.Context, userID string) ([]model.CompletedEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, anime_id, last_watched_episode, completed_at
		 FROM completed_entries
		 WHERE user_id = $1
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed entries: %w", err)
	}
	defer rows.Close()

	entries := []model.CompletedEntry{}
	for rows.Next() {
		var e model.CompletedEntry
		if err := rows.Scan(&e.ID, &e.AnimeID, &e.LastWatchedEpisode, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed entries: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ ProgressRepository = (*PostgresProgressRepo)(nil)
