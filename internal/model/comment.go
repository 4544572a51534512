package model

import "time"

// Comment はアニメに対するユーザーのコメントを表す。
// Username は投稿時点のユーザー名の複製であり、後のユーザー名変更は反映しない。
type Comment struct {
	ID       string
	AnimeID  string
	UserID   string
	Username string
	Text     string
	Date     time.Time
}
