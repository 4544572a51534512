package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sarthak-sharma31/AniMark/internal/middleware"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, username, email, password string) (*userResponse, error)
	loginFn    func(ctx context.Context, email, password string) (*loginResult, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*userResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return &userResponse{ID: "user-1", Username: username, Email: email}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*loginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockUserService struct {
	getProfileFn     func(ctx context.Context, userID string) (*profileResponse, error)
	updateProfileFn  func(ctx context.Context, userID string, username, email *string) (*userResponse, error)
	changePasswordFn func(ctx context.Context, userID, current, next string) error
	uploadImageFn    func(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error)
	withdrawFn       func(ctx context.Context, userID string) error
}

func (m *mockUserService) GetProfile(ctx context.Context, userID string) (*profileResponse, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return &profileResponse{User: userResponse{ID: userID}}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, username, email *string) (*userResponse, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, username, email)
	}
	return &userResponse{ID: userID}, nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, userID, current, next)
	}
	return nil
}

func (m *mockUserService) UploadProfileImage(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	if m.uploadImageFn != nil {
		return m.uploadImageFn(ctx, userID, r, size, contentType)
	}
	return "", nil
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

type mockListService struct {
	addFn            func(ctx context.Context, userID string, listType model.ListType, animeID string) error
	removeFn         func(ctx context.Context, userID string, listType model.ListType, animeID string) error
	getListFn        func(ctx context.Context, userID string, listType model.ListType) ([]animeResponse, error)
	recordProgressFn func(ctx context.Context, userID, animeID string, episode int) (*progressResponse, error)
	clearProgressFn  func(ctx context.Context, userID, animeID string) error
	getOngoingFn     func(ctx context.Context, userID string) ([]ongoingResponse, error)
	getCompletedFn   func(ctx context.Context, userID string) ([]completedResponse, error)
}

func (m *mockListService) AddToList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	if m.addFn != nil {
		return m.addFn(ctx, userID, listType, animeID)
	}
	return nil
}

func (m *mockListService) RemoveFromList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, listType, animeID)
	}
	return nil
}

func (m *mockListService) GetList(ctx context.Context, userID string, listType model.ListType) ([]animeResponse, error) {
	if m.getListFn != nil {
		return m.getListFn(ctx, userID, listType)
	}
	return []animeResponse{}, nil
}

func (m *mockListService) RecordProgress(ctx context.Context, userID, animeID string, episode int) (*progressResponse, error) {
	if m.recordProgressFn != nil {
		return m.recordProgressFn(ctx, userID, animeID, episode)
	}
	return &progressResponse{AnimeID: animeID, LastWatchedEpisode: episode}, nil
}

func (m *mockListService) ClearProgress(ctx context.Context, userID, animeID string) error {
	if m.clearProgressFn != nil {
		return m.clearProgressFn(ctx, userID, animeID)
	}
	return nil
}

func (m *mockListService) GetOngoing(ctx context.Context, userID string) ([]ongoingResponse, error) {
	if m.getOngoingFn != nil {
		return m.getOngoingFn(ctx, userID)
	}
	return []ongoingResponse{}, nil
}

func (m *mockListService) GetCompleted(ctx context.Context, userID string) ([]completedResponse, error) {
	if m.getCompletedFn != nil {
		return m.getCompletedFn(ctx, userID)
	}
	return []completedResponse{}, nil
}

type mockShareService struct {
	createStaticFn  func(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error)
	createDynamicFn func(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error)
	resolveFn       func(ctx context.Context, linkID string) (*sharedViewResponse, error)
	adjustFn        func(ctx context.Context, userID, linkID string, deltaDays int) (*shareLinkResponse, error)
	deleteFn        func(ctx context.Context, userID, linkID string) error
	listFn          func(ctx context.Context, userID string) ([]shareLinkResponse, error)
}

func (m *mockShareService) CreateStatic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error) {
	if m.createStaticFn != nil {
		return m.createStaticFn(ctx, userID, listType, expiration, snapshotName)
	}
	return &shareLinkResponse{ID: "link-1", Type: "static"}, nil
}

func (m *mockShareService) CreateDynamic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error) {
	if m.createDynamicFn != nil {
		return m.createDynamicFn(ctx, userID, listType, expiration, snapshotName)
	}
	return &shareLinkResponse{ID: "link-2", Type: "dynamic"}, nil
}

func (m *mockShareService) Resolve(ctx context.Context, linkID string) (*sharedViewResponse, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, linkID)
	}
	return nil, model.NewLinkNotFoundError(linkID)
}

func (m *mockShareService) AdjustExpiration(ctx context.Context, userID, linkID string, deltaDays int) (*shareLinkResponse, error) {
	if m.adjustFn != nil {
		return m.adjustFn(ctx, userID, linkID, deltaDays)
	}
	return &shareLinkResponse{ID: linkID}, nil
}

func (m *mockShareService) Delete(ctx context.Context, userID, linkID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, linkID)
	}
	return nil
}

func (m *mockShareService) List(ctx context.Context, userID string) ([]shareLinkResponse, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []shareLinkResponse{}, nil
}

type mockAnimeService struct {
	topFn     func(ctx context.Context) ([]animeResponse, error)
	searchFn  func(ctx context.Context, query string) ([]animeResponse, error)
	seasonFn  func(ctx context.Context, year int, season string) ([]animeResponse, error)
	detailsFn func(ctx context.Context, animeID string) (*animeResponse, error)
}

func (m *mockAnimeService) Top(ctx context.Context) ([]animeResponse, error) {
	if m.topFn != nil {
		return m.topFn(ctx)
	}
	return []animeResponse{}, nil
}

func (m *mockAnimeService) Search(ctx context.Context, query string) ([]animeResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return []animeResponse{}, nil
}

func (m *mockAnimeService) Season(ctx context.Context, year int, season string) ([]animeResponse, error) {
	if m.seasonFn != nil {
		return m.seasonFn(ctx, year, season)
	}
	return []animeResponse{}, nil
}

func (m *mockAnimeService) Details(ctx context.Context, animeID string) (*animeResponse, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, animeID)
	}
	return &animeResponse{ID: animeID}, nil
}

type mockCommentService struct {
	postFn   func(ctx context.Context, userID, animeID, text string) (*commentResponse, error)
	listFn   func(ctx context.Context, animeID string) ([]commentResponse, error)
	deleteFn func(ctx context.Context, userID, commentID string) error
}

func (m *mockCommentService) Post(ctx context.Context, userID, animeID, text string) (*commentResponse, error) {
	if m.postFn != nil {
		return m.postFn(ctx, userID, animeID, text)
	}
	return &commentResponse{ID: "c-1", AnimeID: animeID, UserID: userID, Text: text}, nil
}

func (m *mockCommentService) ListForAnime(ctx context.Context, animeID string) ([]commentResponse, error) {
	if m.listFn != nil {
		return m.listFn(ctx, animeID)
	}
	return []commentResponse{}, nil
}

func (m *mockCommentService) Delete(ctx context.Context, userID, commentID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, commentID)
	}
	return nil
}

var (
	_ AuthServiceInterface    = (*mockAuthService)(nil)
	_ UserServiceInterface    = (*mockUserService)(nil)
	_ ListServiceInterface    = (*mockListService)(nil)
	_ ShareServiceInterface   = (*mockShareService)(nil)
	_ AnimeServiceInterface   = (*mockAnimeService)(nil)
	_ CommentServiceInterface = (*mockCommentService)(nil)
)

// --- ヘルパー ---

// withUserID はリクエストコンテキストに認証済みユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
