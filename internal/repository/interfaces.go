// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate key")

// ErrUserMissing は参照先のユーザーが存在しないことを表す（外部キー制約違反）。
var ErrUserMissing = errors.New("user does not exist")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。大文字小文字は区別しない。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名またはメールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザー名とメールアドレスを更新する。
	// 重複する場合はErrDuplicateを返す。
	UpdateProfile(ctx context.Context, id, username, email string) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateProfileImage はプロフィール画像のオブジェクトキーを更新する。
	UpdateProfileImage(ctx context.Context, id, key string) error

	// Stats は各リストの件数を集計する。
	Stats(ctx context.Context, id string) (*model.UserStats, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するリスト、共有リンク、コメント、セッションはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ListRepository は集合型リスト（watchlist / markedAnime）の永続化インターフェース。
type ListRepository interface {
	// AddEntry はリストにアニメIDを追加する。既に存在する場合は何もしない。
	AddEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error

	// RemoveEntry はリストからアニメIDを削除する。存在しない場合は何もしない。
	RemoveEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error

	// ListEntries はリストのアニメIDを追加順に返す。
	ListEntries(ctx context.Context, userID string, listType model.ListType) ([]string, error)
}

// ProgressRepository は視聴進捗（ongoingAnime / completedAnime）の永続化インターフェース。
type ProgressRepository interface {
	// RecordProgress は視聴話数をUPSERTし、同一トランザクションでmarkedAnimeにも追加する。
	RecordProgress(ctx context.Context, userID, animeID string, episode int) error

	// PromoteToCompleted はongoingAnimeのエントリを削除し、completedAnimeへ追記する。
	// 削除と追記は同一トランザクションで行う。
	// 記録済みの話数がepisodeと一致しない場合は何もせずfalseを返す。
	PromoteToCompleted(ctx context.Context, userID, animeID string, episode int) (bool, error)

	// ClearProgress はongoingAnimeのエントリを削除する。存在しない場合は何もしない。
	ClearProgress(ctx context.Context, userID, animeID string) error

	// ListOngoing は視聴中のエントリを更新日時の新しい順に返す。
	ListOngoing(ctx context.Context, userID string) ([]model.OngoingEntry, error)

	// ListCompleted は完了履歴を追記順に返す。
	ListCompleted(ctx context.Context, userID string) ([]model.CompletedEntry, error)
}

// SharedLinkRepository は共有リンクの永続化インターフェース。
// リンクIDは主キーであり、所有者を横断した検索はインデックスで解決される。
type SharedLinkRepository interface {
	// Create は共有リンクを作成する。
	Create(ctx context.Context, link *model.SharedLink) error

	// FindByID は指定IDの共有リンクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SharedLink, error)

	// ListByUserID はユーザーの共有リンクを作成日時の新しい順に返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.SharedLink, error)

	// ShiftExpiration は有効期限をdays日ずらし、更新後の有効期限を返す。
	// リンクが存在しない、または無期限の場合はnilを返す。
	ShiftExpiration(ctx context.Context, userID, linkID string, days int) (*time.Time, error)

	// DeleteByUserAndID はユーザーが所有する共有リンクを削除する。存在しない場合は何もしない。
	DeleteByUserAndID(ctx context.Context, userID, linkID string) error

	// DeleteExpiredBefore はcutoffより前に期限切れとなった共有リンクを削除し、削除件数を返す。
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByAnimeID はアニメに対する全ユーザーのコメントを投稿日時順に返す。
	ListByAnimeID(ctx context.Context, animeID string) ([]*model.Comment, error)

	// DeleteByID は指定IDのコメントを削除する。
	DeleteByID(ctx context.Context, id string) error
}
