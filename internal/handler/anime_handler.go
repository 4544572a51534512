package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// AnimeServiceInterface はアニメ情報ハンドラーが必要とするサービスインターフェース。
type AnimeServiceInterface interface {
	Top(ctx context.Context) ([]animeResponse, error)
	Search(ctx context.Context, query string) ([]animeResponse, error)
	Season(ctx context.Context, year int, season string) ([]animeResponse, error)
	Details(ctx context.Context, animeID string) (*animeResponse, error)
}

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Post(ctx context.Context, userID, animeID, text string) (*commentResponse, error)
	ListForAnime(ctx context.Context, animeID string) ([]commentResponse, error)
	Delete(ctx context.Context, userID, commentID string) error
}

// AnimeHandler はアニメ情報とコメントのHTTPハンドラー。
type AnimeHandler struct {
	anime    AnimeServiceInterface
	comments CommentServiceInterface
}

// NewAnimeHandler はAnimeHandlerを生成する。
func NewAnimeHandler(anime AnimeServiceInterface, comments CommentServiceInterface) *AnimeHandler {
	return &AnimeHandler{anime: anime, comments: comments}
}

type postCommentRequest struct {
	Text string `json:"text"`
}

// Top は人気アニメの一覧を返す。
// GET /api/anime/top
func (h *AnimeHandler) Top(w http.ResponseWriter, r *http.Request) {
	list, err := h.anime.Top(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Search はタイトルでアニメを検索する。
// GET /api/anime/search?q=
func (h *AnimeHandler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.anime.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// SearchByGenre はジャンル名をキーワードとしてアニメを検索する。
// Searchと同じ検索をパスパラメータで受け付ける。
// GET /api/anime/genre/{genre}
func (h *AnimeHandler) SearchByGenre(w http.ResponseWriter, r *http.Request) {
	list, err := h.anime.Search(r.Context(), chi.URLParam(r, "genre"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Season は指定シーズンのアニメ一覧を返す。
// GET /api/anime/season/{year}/{season}
func (h *AnimeHandler) Season(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("年は数値で指定してください"))
		return
	}

	list, err := h.anime.Season(r.Context(), year, chi.URLParam(r, "season"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Details はアニメの詳細を返す。
// GET /api/anime/{animeID}
func (h *AnimeHandler) Details(w http.ResponseWriter, r *http.Request) {
	anime, err := h.anime.Details(r.Context(), chi.URLParam(r, "animeID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, anime)
}

// ListComments はアニメに対する全ユーザーのコメントを返す。
// GET /api/anime/{animeID}/comments
func (h *AnimeHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListForAnime(r.Context(), chi.URLParam(r, "animeID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// PostComment はアニメにコメントを投稿する。
// POST /api/anime/{animeID}/comments
func (h *AnimeHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req postCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Post(r.Context(), userID, chi.URLParam(r, "animeID"), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// DeleteComment は自分のコメントを削除する。
// DELETE /api/comments/{commentID}
func (h *AnimeHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), userID, chi.URLParam(r, "commentID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
