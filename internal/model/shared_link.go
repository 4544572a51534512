package model

import (
	"fmt"
	"time"
)

// LinkType は共有リンクの種別を表す。
type LinkType string

const (
	// LinkTypeStatic は作成時点のリスト内容を固定したスナップショット。
	LinkTypeStatic LinkType = "static"
	// LinkTypeDynamic は閲覧時に所有者の現在のリストを読み直す参照。
	LinkTypeDynamic LinkType = "dynamic"
)

// SharedLink はユーザーのリストを共有するためのリンクを表す。
type SharedLink struct {
	ID       string
	UserID   string
	Type     LinkType
	ListType ListType
	// AnimeIDs はstaticリンク作成時に固定したアニメID。dynamicリンクでは空。
	AnimeIDs     []string
	SnapshotName string
	CreatedAt    time.Time
	// Expiration がnilの場合は無期限。
	Expiration *time.Time
}

// DefaultSnapshotName はスナップショット名未指定時の表示名を返す。
func DefaultSnapshotName(listType ListType) string {
	return fmt.Sprintf("%s Snapshot", listType)
}

// IsExpired は指定時刻においてリンクが期限切れかどうかを返す。
// now が有効期限を過ぎている場合のみ期限切れとなる。
func (l *SharedLink) IsExpired(now time.Time) bool {
	return l.Expiration != nil && now.After(*l.Expiration)
}

// ResolvedLink は共有リンクを解決した結果を表す。
type ResolvedLink struct {
	Link     *SharedLink
	AnimeIDs []string
}
