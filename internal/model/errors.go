// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, not_found, link, upstream, rate_limit, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidListType     = "INVALID_LIST_TYPE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeLinkNotFound        = "LINK_NOT_FOUND"
	ErrCodeAnimeNotFound       = "ANIME_NOT_FOUND"
	ErrCodeCommentNotFound     = "COMMENT_NOT_FOUND"
	ErrCodeNoExpiration        = "NO_EXPIRATION"
	ErrCodeDuplicateUser       = "DUPLICATE_USER"
	ErrCodeLinkExpired         = "LINK_EXPIRED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidListTypeError は未知のリスト種別が指定された場合のエラーを生成する。
func NewInvalidListTypeError(listType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidListType,
		Message:  fmt.Sprintf("無効なリスト種別です: %s", listType),
		Category: "validation",
		Action:   "リスト種別には watchlist、markedAnime、ongoingAnime のいずれかを指定してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン情報が一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewForbiddenError は他ユーザーのリソースを操作しようとした場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したリソースのみ操作できます。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "not_found",
		Action:   "ログインし直してください。",
	}
}

// NewLinkNotFoundError は共有リンクが見つからない場合のエラーを生成する。
func NewLinkNotFoundError(linkID string) *APIError {
	return &APIError{
		Code:     ErrCodeLinkNotFound,
		Message:  fmt.Sprintf("共有リンクが見つかりません: %s", linkID),
		Category: "not_found",
		Action:   "リンクのURLを確認してください。",
	}
}

// NewAnimeNotFoundError はカタログにアニメが存在しない場合のエラーを生成する。
func NewAnimeNotFoundError(animeID string) *APIError {
	return &APIError{
		Code:     ErrCodeAnimeNotFound,
		Message:  fmt.Sprintf("アニメが見つかりません: %s", animeID),
		Category: "not_found",
		Action:   "アニメIDを確認してください。",
	}
}

// NewCommentNotFoundError はコメントが見つからない場合のエラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("コメントが見つかりません: %s", commentID),
		Category: "not_found",
		Action:   "コメントIDを確認してください。",
	}
}

// NewNoExpirationError は無期限リンクの有効期限を調整しようとした場合のエラーを生成する。
func NewNoExpirationError() *APIError {
	return &APIError{
		Code:     ErrCodeNoExpiration,
		Message:  "この共有リンクには有効期限が設定されていません。",
		Category: "validation",
		Action:   "有効期限付きのリンクを作成し直してください。",
	}
}

// NewDuplicateUserError はユーザー名またはメールアドレスが既に使われている場合のエラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このユーザー名またはメールアドレスは既に使用されています。",
		Category: "validation",
		Action:   "別のユーザー名またはメールアドレスを指定してください。",
	}
}

// NewLinkExpiredError は有効期限切れの共有リンクにアクセスした場合のエラーを生成する。
// リンク未検出とは区別して扱う。
func NewLinkExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkExpired,
		Message:  "この共有リンクは有効期限が切れています。",
		Category: "link",
		Action:   "リンクの作成者に新しいリンクを依頼してください。",
	}
}

// NewUpstreamUnavailableError はアニメカタログへの問い合わせに失敗した場合のエラーを生成する。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "外部サービスから情報を取得できませんでした。",
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "rate_limit",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
