package model

// Anime は外部カタログから取得したアニメのメタデータを表す。
// システムはこのデータを所有せず、表示のたびにカタログから取得する。
type Anime struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	ImageURL string   `json:"imageUrl"`
	Score    *float64 `json:"score"`
	// Episodes は総話数。放送中などで未確定の場合はnil。
	Episodes *int     `json:"episodes"`
	Genres   []string `json:"genres"`
	Status   string   `json:"status"`
	Synopsis string   `json:"synopsis"`
}

// TotalEpisodesKnown は総話数が確定しているかを返す。
func (a *Anime) TotalEpisodesKnown() bool {
	return a.Episodes != nil && *a.Episodes > 0
}

// IsFinalEpisode は指定話数が最終話かどうかを返す。
// 総話数が未確定のアニメは完了扱いにならない。
func (a *Anime) IsFinalEpisode(episode int) bool {
	return a.TotalEpisodesKnown() && *a.Episodes == episode
}

// maxAnimeIDLength はアニメIDとして受け付ける最大桁数。
const maxAnimeIDLength = 10

// ValidateAnimeID はアニメIDの形式を検証する。
// カタログのIDは正の整数であるため、数字以外を含むIDは拒否する。
func ValidateAnimeID(id string) error {
	if id == "" {
		return NewValidationError("アニメIDが指定されていません")
	}
	if len(id) > maxAnimeIDLength {
		return NewValidationError("アニメIDが長すぎます")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return NewValidationError("アニメIDは数字で指定してください")
		}
	}
	if id[0] == '0' {
		return NewValidationError("アニメIDは正の整数で指定してください")
	}
	return nil
}
