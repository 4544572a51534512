package handler

import (
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// animeResponse はアニメ情報のAPIレスポンス。
type animeResponse struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	ImageURL string   `json:"imageUrl"`
	Score    *float64 `json:"score"`
	Episodes *int     `json:"episodes"`
	Genres   []string `json:"genres"`
	Status   string   `json:"status,omitempty"`
	Synopsis string   `json:"synopsis,omitempty"`
}

// ongoingResponse は視聴中アニメのAPIレスポンス。
type ongoingResponse struct {
	AnimeID            string         `json:"animeId"`
	LastWatchedEpisode int            `json:"lastWatchedEpisode"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	Anime              *animeResponse `json:"anime"`
}

// completedResponse は完了アニメのAPIレスポンス。
type completedResponse struct {
	AnimeID            string         `json:"animeId"`
	LastWatchedEpisode int            `json:"lastWatchedEpisode"`
	CompletedAt        time.Time      `json:"completedAt"`
	Anime              *animeResponse `json:"anime"`
}

// progressResponse は視聴進捗記録のAPIレスポンス。
type progressResponse struct {
	AnimeID            string `json:"animeId"`
	LastWatchedEpisode int    `json:"lastWatchedEpisode"`
	Completed          bool   `json:"completed"`
}

// shareLinkResponse は共有リンクのAPIレスポンス。
type shareLinkResponse struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	ListType     string     `json:"listType"`
	AnimeIDs     []string   `json:"animeIds"`
	SnapshotName string     `json:"snapshotName"`
	CreatedAt    time.Time  `json:"createdAt"`
	Expiration   *time.Time `json:"expiration"`
	URL          string     `json:"url,omitempty"`
	Expired      bool       `json:"expired"`
}

// sharedViewResponse は共有リンク閲覧のAPIレスポンス。
type sharedViewResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	ListType     string          `json:"listType"`
	SnapshotName string          `json:"snapshotName"`
	CreatedAt    time.Time       `json:"createdAt"`
	Expiration   *time.Time      `json:"expiration"`
	Anime        []animeResponse `json:"anime"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID       string    `json:"id"`
	AnimeID  string    `json:"animeId"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// statsResponse は各リスト件数のAPIレスポンス。
type statsResponse struct {
	Watchlist   int `json:"watchlist"`
	MarkedAnime int `json:"markedAnime"`
	Ongoing     int `json:"ongoingAnime"`
	Completed   int `json:"completedAnime"`
	SharedLinks int `json:"sharedLinks"`
}

// profileResponse はプロフィールのAPIレスポンス。
type profileResponse struct {
	User            userResponse  `json:"user"`
	Stats           statsResponse `json:"stats"`
	ProfileImageURL string        `json:"profileImageUrl"`
}

// loginResult はログイン成功時にハンドラーへ返す認証情報。
type loginResult struct {
	SessionID      string
	TokenExpiresAt time.Time
	Token          string
	User           userResponse
}

// loginResponse はログインのAPIレスポンス。
type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toAnimeResponse(a *model.Anime) animeResponse {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return animeResponse{
		ID:       a.ID,
		Title:    a.Title,
		ImageURL: a.ImageURL,
		Score:    a.Score,
		Episodes: a.Episodes,
		Genres:   genres,
		Status:   a.Status,
		Synopsis: a.Synopsis,
	}
}

func toAnimeResponses(list []*model.Anime) []animeResponse {
	out := make([]animeResponse, 0, len(list))
	for _, a := range list {
		if a == nil {
			continue
		}
		out = append(out, toAnimeResponse(a))
	}
	return out
}

func toShareLinkResponse(l *model.SharedLink, url string, expired bool) shareLinkResponse {
	ids := l.AnimeIDs
	if ids == nil {
		ids = []string{}
	}
	return shareLinkResponse{
		ID:           l.ID,
		Type:         string(l.Type),
		ListType:     l.ListType.String(),
		AnimeIDs:     ids,
		SnapshotName: l.SnapshotName,
		CreatedAt:    l.CreatedAt,
		Expiration:   l.Expiration,
		URL:          url,
		Expired:      expired,
	}
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:       c.ID,
		AnimeID:  c.AnimeID,
		UserID:   c.UserID,
		Username: c.Username,
		Text:     c.Text,
		Date:     c.Date,
	}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
