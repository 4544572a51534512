package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// ListServiceInterface はリスト・視聴進捗ハンドラーが必要とするサービスインターフェース。
type ListServiceInterface interface {
	AddToList(ctx context.Context, userID string, listType model.ListType, animeID string) error
	RemoveFromList(ctx context.Context, userID string, listType model.ListType, animeID string) error
	GetList(ctx context.Context, userID string, listType model.ListType) ([]animeResponse, error)
	RecordProgress(ctx context.Context, userID, animeID string, episode int) (*progressResponse, error)
	ClearProgress(ctx context.Context, userID, animeID string) error
	GetOngoing(ctx context.Context, userID string) ([]ongoingResponse, error)
	GetCompleted(ctx context.Context, userID string) ([]completedResponse, error)
}

// ListHandler はアニメリストと視聴進捗のHTTPハンドラー。
type ListHandler struct {
	service ListServiceInterface
}

// NewListHandler はListHandlerを生成する。
func NewListHandler(service ListServiceInterface) *ListHandler {
	return &ListHandler{service: service}
}

type addToListRequest struct {
	AnimeID string `json:"animeId"`
}

type recordProgressRequest struct {
	Episode int `json:"episode"`
}

// GetList はリストの内容をアニメ情報付きで返す。
// GET /api/lists/{listType}
func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.GetList(r.Context(), userID, model.ListType(chi.URLParam(r, "listType")))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// AddToList はリストにアニメを追加する。既に含まれている場合も成功とする。
// POST /api/lists/{listType}
func (h *ListHandler) AddToList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addToListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AddToList(r.Context(), userID, model.ListType(chi.URLParam(r, "listType")), req.AnimeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromList はリストからアニメを削除する。含まれていない場合も成功とする。
// DELETE /api/lists/{listType}/{animeID}
func (h *ListHandler) RemoveFromList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	listType := model.ListType(chi.URLParam(r, "listType"))
	if err := h.service.RemoveFromList(r.Context(), userID, listType, chi.URLParam(r, "animeID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOngoing は視聴中アニメの一覧を返す。
// GET /api/progress
func (h *ListHandler) GetOngoing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.GetOngoing(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetCompleted は全話視聴済みアニメの履歴を返す。
// GET /api/progress/completed
func (h *ListHandler) GetCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.GetCompleted(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// RecordProgress は視聴済み話数を記録する。最終話の場合は完了に移動する。
// PUT /api/progress/{animeID}
func (h *ListHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req recordProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.RecordProgress(r.Context(), userID, chi.URLParam(r, "animeID"), req.Episode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ClearProgress は視聴進捗を削除する。
// DELETE /api/progress/{animeID}
func (h *ListHandler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearProgress(r.Context(), userID, chi.URLParam(r, "animeID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
