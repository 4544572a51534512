package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, profile_image_key, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ProfileImageKey, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, profile_image_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.ProfileImageKey, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateProfile はユーザー名とメールアドレスを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id, username, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = $2, email = $3, updated_at = $4 WHERE id = $1`,
		id, username, email, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdatePassword はパスワードハッシュを更新する。
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfileImage はプロフィール画像のオブジェクトキーを更新する。
func (r *PostgresUserRepo) UpdateProfileImage(ctx context.Context, id, key string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile_image_key = $2, updated_at = $3 WHERE id = $1`,
		id, key, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}
	return nil
}

// Stats は各リストの件数を1クエリで集計する。
func (r *PostgresUserRepo) Stats(ctx context.Context, id string) (*model.UserStats, error) {
	stats := &model.UserStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM list_entries WHERE user_id = $1 AND list_type = 'watchlist'),
			(SELECT count(*) FROM list_entries WHERE user_id = $1 AND list_type = 'markedAnime'),
			(SELECT count(*) FROM ongoing_entries WHERE user_id = $1),
			(SELECT count(*) FROM completed_entries WHERE user_id = $1),
			(SELECT count(*) FROM shared_links WHERE user_id = $1)`,
		id,
	).Scan(&stats.Watchlist, &stats.MarkedAnime, &stats.Ongoing, &stats.Completed, &stats.SharedLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to count user lists: %w", err)
	}
	return stats, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するリスト、共有リンク、コメント、セッションはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
