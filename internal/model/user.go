// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultProfileImageURL はプロフィール画像未設定時に表示する画像のURL。
const DefaultProfileImageURL = "https://i.pinimg.com/736x/c0/74/9b/c0749b7cc401421662ae901ec8f9f660.jpg"

// User はサービス利用ユーザーを表す。
// PasswordHashはAPIレスポンスに含めてはならない。
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	ProfileImageKey string // オブジェクトストレージ上のキー。未設定の場合は空文字
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserStats はプロフィール画面に表示する各リストの件数。
type UserStats struct {
	Watchlist   int
	MarkedAnime int
	Ongoing     int
	Completed   int
	SharedLinks int
}
