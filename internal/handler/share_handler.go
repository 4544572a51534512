package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ShareServiceInterface は共有リンクハンドラーが必要とするサービスインターフェース。
type ShareServiceInterface interface {
	CreateStatic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error)
	CreateDynamic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error)
	Resolve(ctx context.Context, linkID string) (*sharedViewResponse, error)
	AdjustExpiration(ctx context.Context, userID, linkID string, deltaDays int) (*shareLinkResponse, error)
	Delete(ctx context.Context, userID, linkID string) error
	List(ctx context.Context, userID string) ([]shareLinkResponse, error)
}

// ShareHandler は共有リンクのHTTPハンドラー。
type ShareHandler struct {
	service ShareServiceInterface
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(service ShareServiceInterface) *ShareHandler {
	return &ShareHandler{service: service}
}

// expirationValue は有効期限の指定。日数の数値と文字列（"7" や "permanent"）の両方を受け付ける。
type expirationValue string

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (e *expirationValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = expirationValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expiration must be a number or a string: %w", err)
	}
	*e = expirationValue(n.String())
	return nil
}

type createShareLinkRequest struct {
	ListType     string          `json:"listType"`
	Expiration   expirationValue `json:"expiration"`
	SnapshotName string          `json:"snapshotName"`
}

type adjustExpirationRequest struct {
	DeltaDays int `json:"deltaDays"`
}

// List はユーザーの共有リンク一覧を返す。
// GET /api/share-links
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	links, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, links)
}

// CreateStatic は作成時点のリストを固定した共有リンクを作成する。
// POST /api/share-links/static
func (h *ShareHandler) CreateStatic(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.service.CreateStatic)
}

// CreateDynamic は閲覧時に最新のリストを表示する共有リンクを作成する。
// POST /api/share-links/dynamic
func (h *ShareHandler) CreateDynamic(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.service.CreateDynamic)
}

type createFunc func(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error)

func (h *ShareHandler) create(w http.ResponseWriter, r *http.Request, fn createFunc) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createShareLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := fn(r.Context(), userID, req.ListType, string(req.Expiration), req.SnapshotName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// AdjustExpiration は有効期限を±1日変更する。
// PATCH /api/share-links/{linkID}/expiration
func (h *ShareHandler) AdjustExpiration(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req adjustExpirationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.service.AdjustExpiration(r.Context(), userID, chi.URLParam(r, "linkID"), req.DeltaDays)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// Delete は共有リンクを削除する。存在しない場合も成功とする。
// DELETE /api/share-links/{linkID}
func (h *ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "linkID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Resolve は共有リンクの内容を返す。認証不要。
// 期限切れのリンクは404ではなく410を返す。
// GET /shared/{linkID}
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Resolve(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
