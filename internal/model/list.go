package model

import "time"

// ListType はユーザーが保持するアニメリストの種別を表す。
// 未知の値は ParseListType で境界において拒否する。
type ListType string

const (
	ListTypeWatchlist   ListType = "watchlist"
	ListTypeMarkedAnime ListType = "markedAnime"
	ListTypeOngoing     ListType = "ongoingAnime"
)

// listTypes は受け付けるリスト種別の一覧。
var listTypes = map[ListType]bool{
	ListTypeWatchlist:   true,
	ListTypeMarkedAnime: true,
	ListTypeOngoing:     true,
}

// ParseListType は文字列をListTypeに変換する。
// 未知の値の場合は INVALID_LIST_TYPE のAPIErrorを返す。
func ParseListType(s string) (ListType, error) {
	lt := ListType(s)
	if !listTypes[lt] {
		return "", NewInvalidListTypeError(s)
	}
	return lt, nil
}

// IsMembershipList はリストが集合型（watchlist / markedAnime）かどうかを返す。
// ongoingAnime は視聴話数を伴うため集合型ではない。
func (lt ListType) IsMembershipList() bool {
	return lt == ListTypeWatchlist || lt == ListTypeMarkedAnime
}

// String はfmt.Stringerを実装する。
func (lt ListType) String() string {
	return string(lt)
}

// OngoingEntry は視聴中アニメの進捗を表す。
type OngoingEntry struct {
	AnimeID            string
	LastWatchedEpisode int
	UpdatedAt          time.Time
}

// CompletedEntry は全話視聴により完了となったアニメの記録を表す。
// 追記のみで更新されない。
type CompletedEntry struct {
	ID                 int64
	AnimeID            string
	LastWatchedEpisode int
	CompletedAt        time.Time
}
