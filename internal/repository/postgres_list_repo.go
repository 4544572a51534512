package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// PostgresListRepo はPostgreSQLを使用した集合型リストのリポジトリ。
// (user_id, list_type, anime_id) の主キーにより重複は構造上発生しない。
type PostgresListRepo struct {
	db *sql.DB
}

// NewPostgresListRepo はPostgresListRepoを生成する。
func NewPostgresListRepo(db *sql.DB) *PostgresListRepo {
	return &PostgresListRepo{db: db}
}

// AddEntry はリストにアニメIDを追加する。既に存在する場合は何もしない。
func (r *PostgresListRepo) AddEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO list_entries (user_id, list_type, anime_id, added_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, list_type, anime_id) DO NOTHING`,
		userID, string(listType), animeID,
	)
	if isForeignKeyViolation(err) {
		return ErrUserMissing
	}
	if err != nil {
		return fmt.Errorf("failed to add list entry: %w", err)
	}
	return nil
}

// RemoveEntry はリストからアニメIDを削除する。存在しない場合は何もしない。
func (r *PostgresListRepo) RemoveEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM list_entries WHERE user_id = $1 AND list_type = $2 AND anime_id = $3`,
		userID, string(listType), animeID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove list entry: %w", err)
	}
	return nil
}

// ListEntries はリストのアニメIDを追加順に返す。
func (r *PostgresListRepo) ListEntries(ctx context.Context, userID string, listType model.ListType) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT anime_id FROM list_entries
		 WHERE user_id = $1 AND list_type = $2
		 ORDER BY added_at, anime_id`,
		userID, string(listType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan list entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list entries: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ ListRepository = (*PostgresListRepo)(nil)
