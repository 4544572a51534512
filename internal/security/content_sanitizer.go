// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力したコメント本文や表示名からHTMLを取り除く。
// bluemondayのStrictPolicyにより、すべてのタグと属性を除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// StripTags はHTMLタグを除去したプレーンテキストを返す。
	// script/styleの中身は除去され、前後の空白はトリムされる。
	// 同一入力に対して常に同一出力を返す。
	StripTags(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// StripTags はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyの出力はHTMLエスケープされているため、プレーンテキストに戻して保存する。
// 表示側は常にエスケープして出力すること。
func (s *textSanitizer) StripTags(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// TruncateRunes は文字数（rune単位）でテキストを切り詰める。
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
