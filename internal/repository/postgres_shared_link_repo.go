package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// PostgresSharedLinkRepo はPostgreSQLを使用した共有リンクリポジトリ。
type PostgresSharedLinkRepo struct {
	db *sql.DB
}

// NewPostgresSharedLinkRepo はPostgresSharedLinkRepoを生成する。
func NewPostgresSharedLinkRepo(db *sql.DB) *PostgresSharedLinkRepo {
	return &PostgresSharedLinkRepo{db: db}
}

const sharedLinkColumns = `id, user_id, link_type, list_type, anime_ids, snapshot_name, created_at, expiration`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSharedLink(row rowScanner) (*model.SharedLink, error) {
	link := &model.SharedLink{}
	var linkType, listType string
	var animeIDs pq.StringArray
	var expiration sql.NullTime

	err := row.Scan(
		&link.ID, &link.UserID, &linkType, &listType,
		&animeIDs, &link.SnapshotName, &link.CreatedAt, &expiration,
	)
	if err != nil {
		return nil, err
	}

	link.Type = model.LinkType(linkType)
	link.ListType = model.ListType(listType)
	link.AnimeIDs = []string(animeIDs)
	if link.AnimeIDs == nil {
		link.AnimeIDs = []string{}
	}
	if expiration.Valid {
		t := expiration.Time
		link.Expiration = &t
	}
	return link, nil
}

// Create は共有リンクを作成する。
func (r *PostgresSharedLinkRepo) Create(ctx context.Context, link *model.SharedLink) error {
	animeIDs := link.AnimeIDs
	if animeIDs == nil {
		animeIDs = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shared_links (id, user_id, link_type, list_type, anime_ids, snapshot_name, created_at, expiration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		link.ID, link.UserID, string(link.Type), string(link.ListType),
		pq.Array(animeIDs), link.SnapshotName, link.CreatedAt, link.Expiration,
	)
	if isForeignKeyViolation(err) {
		return ErrUserMissing
	}
	if err != nil {
		return fmt.Errorf("failed to insert shared link: %w", err)
	}
	return nil
}

// FindByID は指定IDの共有リンクを取得する。見つからない場合はnilを返す。
func (r *PostgresSharedLinkRepo) FindByID(ctx context.Context, id string) (*model.SharedLink, error) {
	link, err := scanSharedLink(r.db.QueryRowContext(ctx,
		`SELECT `+sharedLinkColumns+` FROM shared_links WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shared link: %w", err)
	}
	return link, nil
}

// ListByUserID はユーザーの共有リンクを作成日時の新しい順に返す。
func (r *PostgresSharedLinkRepo) ListByUserID(ctx context.Context, userID string) ([]*model.SharedLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sharedLinkColumns+` FROM shared_links
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared links: %w", err)
	}
	defer rows.Close()

	links := []*model.SharedLink{}
	for rows.Next() {
		link, err := scanSharedLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared links: %w", err)
	}
	return links, nil
}

// ShiftExpiration は有効期限をdays日ずらし、更新後の有効期限を返す。
// 単一のUPDATE文で読み取りと更新を行う。
func (r *PostgresSharedLinkRepo) ShiftExpiration(ctx context.Context, userID, linkID string, days int) (*time.Time, error) {
	var expiration time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE shared_links
		 SET expiration = expiration + make_interval(days => $3)
		 WHERE id = $1 AND user_id = $2 AND expiration IS NOT NULL
		 RETURNING expiration`,
		linkID, userID, days,
	).Scan(&expiration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to shift link expiration: %w", err)
	}
	return &expiration, nil
}

// DeleteByUserAndID はユーザーが所有する共有リンクを削除する。存在しない場合は何もしない。
func (r *PostgresSharedLinkRepo) DeleteByUserAndID(ctx context.Context, userID, linkID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_links WHERE id = $1 AND user_id = $2`,
		linkID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete shared link: %w", err)
	}
	return nil
}

// DeleteExpiredBefore はcutoffより前に期限切れとなった共有リンクを削除し、削除件数を返す。
func (r *PostgresSharedLinkRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_links WHERE expiration IS NOT NULL AND expiration < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired shared links: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ SharedLinkRepository = (*PostgresSharedLinkRepo)(nil)
