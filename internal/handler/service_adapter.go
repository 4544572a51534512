package handler

import (
	"context"
	"io"

	"github.com/sarthak-sharma31/AniMark/internal/auth"
	"github.com/sarthak-sharma31/AniMark/internal/comment"
	"github.com/sarthak-sharma31/AniMark/internal/library"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"github.com/sarthak-sharma31/AniMark/internal/share"
	"github.com/sarthak-sharma31/AniMark/internal/user"
)

// AuthServiceAdapter は auth.Service と user.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	auth  *auth.Service
	users *user.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(authSvc *auth.Service, userSvc *user.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{auth: authSvc, users: userSvc}
}

// Register はアカウントを作成しhandlerレスポンス型で返す。
func (a *AuthServiceAdapter) Register(ctx context.Context, username, email, password string) (*userResponse, error) {
	u, err := a.users.Register(ctx, user.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// Login はログインしセッションIDとトークンを返す。
func (a *AuthServiceAdapter) Login(ctx context.Context, email, password string) (*loginResult, error) {
	result, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &loginResult{
		SessionID:      result.Session.ID,
		Token:          result.Token,
		TokenExpiresAt: result.TokenExpiresAt,
		User:           toUserResponse(result.User),
	}, nil
}

// Logout はセッションを破棄する。
func (a *AuthServiceAdapter) Logout(ctx context.Context, sessionID string) error {
	return a.auth.Logout(ctx, sessionID)
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// GetProfile はプロフィールをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) GetProfile(ctx context.Context, userID string) (*profileResponse, error) {
	p, err := a.svc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &profileResponse{
		User:            toUserResponse(p.User),
		ProfileImageURL: p.ImageURL,
	}
	if p.Stats != nil {
		resp.Stats = statsResponse{
			Watchlist:   p.Stats.Watchlist,
			MarkedAnime: p.Stats.MarkedAnime,
			Ongoing:     p.Stats.Ongoing,
			Completed:   p.Stats.Completed,
			SharedLinks: p.Stats.SharedLinks,
		}
	}
	return resp, nil
}

// UpdateProfile はユーザー名・メールアドレスを更新する。
func (a *UserServiceAdapter) UpdateProfile(ctx context.Context, userID string, username, email *string) (*userResponse, error) {
	u, err := a.svc.UpdateProfile(ctx, userID, user.UpdateProfileInput{Username: username, Email: email})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// ChangePassword はパスワードを変更する。
func (a *UserServiceAdapter) ChangePassword(ctx context.Context, userID, current, next string) error {
	return a.svc.ChangePassword(ctx, userID, current, next)
}

// UploadProfileImage はプロフィール画像を保存し、その公開URLを返す。
func (a *UserServiceAdapter) UploadProfileImage(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	return a.svc.UploadProfileImage(ctx, userID, user.ImageUpload{Reader: r, Size: size, ContentType: contentType})
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	return a.svc.Withdraw(ctx, userID)
}

// ListServiceAdapter は library.Service を ListServiceInterface に適合させるアダプタ。
type ListServiceAdapter struct {
	svc *library.Service
}

// NewListServiceAdapter はListServiceAdapterを生成する。
func NewListServiceAdapter(svc *library.Service) *ListServiceAdapter {
	return &ListServiceAdapter{svc: svc}
}

// AddToList はリストにアニメを追加する。
func (a *ListServiceAdapter) AddToList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	return a.svc.AddToList(ctx, userID, listType, animeID)
}

// RemoveFromList はリストからアニメを削除する。
func (a *ListServiceAdapter) RemoveFromList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	return a.svc.RemoveFromList(ctx, userID, listType, animeID)
}

// GetList はリストの内容をhandlerレスポンス型で返す。
func (a *ListServiceAdapter) GetList(ctx context.Context, userID string, listType model.ListType) ([]animeResponse, error) {
	list, err := a.svc.GetList(ctx, userID, listType)
	if err != nil {
		return nil, err
	}
	return toAnimeResponses(list), nil
}

// RecordProgress は視聴進捗を記録しhandlerレスポンス型で返す。
func (a *ListServiceAdapter) RecordProgress(ctx context.Context, userID, animeID string, episode int) (*progressResponse, error) {
	result, err := a.svc.RecordProgress(ctx, userID, animeID, episode)
	if err != nil {
		return nil, err
	}
	return &progressResponse{
		AnimeID:            result.AnimeID,
		LastWatchedEpisode: result.LastWatchedEpisode,
		Completed:          result.Completed,
	}, nil
}

// ClearProgress は視聴進捗を削除する。
func (a *ListServiceAdapter) ClearProgress(ctx context.Context, userID, animeID string) error {
	return a.svc.ClearProgress(ctx, userID, animeID)
}

// GetOngoing は視聴中アニメをhandlerレスポンス型で返す。
func (a *ListServiceAdapter) GetOngoing(ctx context.Context, userID string) ([]ongoingResponse, error) {
	items, err := a.svc.GetOngoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ongoingResponse, len(items))
	for i, it := range items {
		anime := toAnimeResponse(it.Anime)
		out[i] = ongoingResponse{
			AnimeID:            it.Entry.AnimeID,
			LastWatchedEpisode: it.Entry.LastWatchedEpisode,
			UpdatedAt:          it.Entry.UpdatedAt,
			Anime:              &anime,
		}
	}
	return out, nil
}

// GetCompleted は完了アニメをhandlerレスポンス型で返す。
func (a *ListServiceAdapter) GetCompleted(ctx context.Context, userID string) ([]completedResponse, error) {
	items, err := a.svc.GetCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]completedResponse, len(items))
	for i, it := range items {
		anime := toAnimeResponse(it.Anime)
		out[i] = completedResponse{
			AnimeID:            it.Entry.AnimeID,
			LastWatchedEpisode: it.Entry.LastWatchedEpisode,
			CompletedAt:        it.Entry.CompletedAt,
			Anime:              &anime,
		}
	}
	return out, nil
}

// ShareServiceAdapter は share.Service を ShareServiceInterface に適合させるアダプタ。
type ShareServiceAdapter struct {
	svc *share.Service
}

// NewShareServiceAdapter はShareServiceAdapterを生成する。
func NewShareServiceAdapter(svc *share.Service) *ShareServiceAdapter {
	return &ShareServiceAdapter{svc: svc}
}

// CreateStatic はstaticリンクを作成する。
func (a *ShareServiceAdapter) CreateStatic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error) {
	return a.created(a.svc.CreateStaticShareLink(ctx, userID, createInput(listType, expiration, snapshotName)))
}

// CreateDynamic はdynamicリンクを作成する。
func (a *ShareServiceAdapter) CreateDynamic(ctx context.Context, userID, listType, expiration, snapshotName string) (*shareLinkResponse, error) {
	return a.created(a.svc.CreateDynamicShareLink(ctx, userID, createInput(listType, expiration, snapshotName)))
}

func createInput(listType, expiration, snapshotName string) share.CreateInput {
	return share.CreateInput{
		ListType:     model.ListType(listType),
		Expiration:   expiration,
		SnapshotName: snapshotName,
	}
}

func (a *ShareServiceAdapter) created(link *model.SharedLink, err error) (*shareLinkResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := toShareLinkResponse(link, a.svc.ShareURL(link.ID), false)
	return &resp, nil
}

// Resolve は共有リンクを解決しアニメ情報付きで返す。
func (a *ShareServiceAdapter) Resolve(ctx context.Context, linkID string) (*sharedViewResponse, error) {
	details, err := a.svc.ResolveShareLinkDetails(ctx, linkID)
	if err != nil {
		return nil, err
	}
	l := details.Link
	return &sharedViewResponse{
		ID:           l.ID,
		Type:         string(l.Type),
		ListType:     l.ListType.String(),
		SnapshotName: l.SnapshotName,
		CreatedAt:    l.CreatedAt,
		Expiration:   l.Expiration,
		Anime:        toAnimeResponses(details.Anime),
	}, nil
}

// AdjustExpiration は有効期限を±1日変更する。
func (a *ShareServiceAdapter) AdjustExpiration(ctx context.Context, userID, linkID string, deltaDays int) (*shareLinkResponse, error) {
	link, err := a.svc.AdjustLinkExpiration(ctx, userID, linkID, deltaDays)
	if err != nil {
		return nil, err
	}
	resp := toShareLinkResponse(link, a.svc.ShareURL(link.ID), false)
	return &resp, nil
}

// Delete は共有リンクを削除する。
func (a *ShareServiceAdapter) Delete(ctx context.Context, userID, linkID string) error {
	return a.svc.DeleteShareLink(ctx, userID, linkID)
}

// List は共有リンク一覧をhandlerレスポンス型で返す。
func (a *ShareServiceAdapter) List(ctx context.Context, userID string) ([]shareLinkResponse, error) {
	infos, err := a.svc.ListShareLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]shareLinkResponse, len(infos))
	for i, info := range infos {
		out[i] = toShareLinkResponse(info.Link, info.URL, info.Expired)
	}
	return out, nil
}

// AnimeServiceAdapter は library.BrowseService と library.Service を AnimeServiceInterface に適合させるアダプタ。
type AnimeServiceAdapter struct {
	browse  *library.BrowseService
	library *library.Service
}

// NewAnimeServiceAdapter はAnimeServiceAdapterを生成する。
func NewAnimeServiceAdapter(browse *library.BrowseService, lib *library.Service) *AnimeServiceAdapter {
	return &AnimeServiceAdapter{browse: browse, library: lib}
}

// Top は人気アニメの一覧を返す。
func (a *AnimeServiceAdapter) Top(ctx context.Context) ([]animeResponse, error) {
	return animeList(a.browse.Top(ctx))
}

// Search はアニメを検索する。
func (a *AnimeServiceAdapter) Search(ctx context.Context, query string) ([]animeResponse, error) {
	return animeList(a.browse.Search(ctx, query))
}

// Season は指定シーズンのアニメ一覧を返す。
func (a *AnimeServiceAdapter) Season(ctx context.Context, year int, season string) ([]animeResponse, error) {
	return animeList(a.browse.Season(ctx, year, season))
}

// Details はアニメの詳細を返す。
func (a *AnimeServiceAdapter) Details(ctx context.Context, animeID string) (*animeResponse, error) {
	anime, err := a.library.GetAnimeDetails(ctx, animeID)
	if err != nil {
		return nil, err
	}
	resp := toAnimeResponse(anime)
	return &resp, nil
}

func animeList(list []*model.Anime, err error) ([]animeResponse, error) {
	if err != nil {
		return nil, err
	}
	return toAnimeResponses(list), nil
}

// CommentServiceAdapter は comment.Service を CommentServiceInterface に適合させるアダプタ。
type CommentServiceAdapter struct {
	svc *comment.Service
}

// NewCommentServiceAdapter はCommentServiceAdapterを生成する。
func NewCommentServiceAdapter(svc *comment.Service) *CommentServiceAdapter {
	return &CommentServiceAdapter{svc: svc}
}

// Post はコメントを投稿する。
func (a *CommentServiceAdapter) Post(ctx context.Context, userID, animeID, text string) (*commentResponse, error) {
	c, err := a.svc.PostComment(ctx, userID, animeID, text)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(c)
	return &resp, nil
}

// ListForAnime はアニメのコメント一覧を返す。
func (a *CommentServiceAdapter) ListForAnime(ctx context.Context, animeID string) ([]commentResponse, error) {
	comments, err := a.svc.GetCommentsForAnime(ctx, animeID)
	if err != nil {
		return nil, err
	}
	out := make([]commentResponse, len(comments))
	for i, c := range comments {
		out[i] = toCommentResponse(c)
	}
	return out, nil
}

// Delete はコメントを削除する。
func (a *CommentServiceAdapter) Delete(ctx context.Context, userID, commentID string) error {
	return a.svc.DeleteComment(ctx, userID, commentID)
}

var (
	_ AuthServiceInterface    = (*AuthServiceAdapter)(nil)
	_ UserServiceInterface    = (*UserServiceAdapter)(nil)
	_ ListServiceInterface    = (*ListServiceAdapter)(nil)
	_ ShareServiceInterface   = (*ShareServiceAdapter)(nil)
	_ AnimeServiceInterface   = (*AnimeServiceAdapter)(nil)
	_ CommentServiceInterface = (*CommentServiceAdapter)(nil)
)
