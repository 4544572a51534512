package share

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id, Username: "alice"}, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, username, email string) error {
	return nil
}
func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}
func (m *mockUserRepo) UpdateProfileImage(ctx context.Context, id, key string) error { return nil }
func (m *mockUserRepo) Stats(ctx context.Context, id string) (*model.UserStats, error) {
	return &model.UserStats{}, nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error { return nil }

// memoryLinks はSharedLinkRepositoryのインメモリ実装。
type memoryLinks struct {
	mu    sync.Mutex
	links map[string]*model.SharedLink

	// shiftHook が設定されている場合、ShiftExpirationの直前に呼ばれる
	shiftHook func()
}

func newMemoryLinks() *memoryLinks {
	return &memoryLinks{links: map[string]*model.SharedLink{}}
}

func (m *memoryLinks) Create(ctx context.Context, link *model.SharedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *link
	c.AnimeIDs = append([]string(nil), link.AnimeIDs...)
	m.links[link.ID] = &c
	return nil
}

func (m *memoryLinks) FindByID(ctx context.Context, id string) (*model.SharedLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (m *memoryLinks) ListByUserID(ctx context.Context, userID string) ([]*model.SharedLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SharedLink
	for _, l := range m.links {
		if l.UserID == userID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryLinks) ShiftExpiration(ctx context.Context, userID, linkID string, days int) (*time.Time, error) {
	if m.shiftHook != nil {
		m.shiftHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok || l.UserID != userID || l.Expiration == nil {
		return nil, nil
	}
	exp := l.Expiration.AddDate(0, 0, days)
	l.Expiration = &exp
	return &exp, nil
}

func (m *memoryLinks) DeleteByUserAndID(ctx context.Context, userID, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[linkID]; ok && l.UserID == userID {
		delete(m.links, linkID)
	}
	return nil
}

func (m *memoryLinks) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// memoryListReader はユーザーごとのリスト内容を保持する。
type memoryListReader struct {
	mu    sync.Mutex
	lists map[string]map[model.ListType][]string
}

func (r *memoryListReader) ListAnimeIDs(ctx context.Context, userID string, listType model.ListType) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.lists[userID][listType]...), nil
}

func (r *memoryListReader) set(userID string, listType model.ListType, ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lists == nil {
		r.lists = map[string]map[model.ListType][]string{}
	}
	if r.lists[userID] == nil {
		r.lists[userID] = map[model.ListType][]string{}
	}
	r.lists[userID][listType] = ids
}

type fakeCatalog struct {
	failing map[string]bool
}

func (f *fakeCatalog) GetAnimeByID(ctx context.Context, id string) (*model.Anime, error) {
	return &model.Anime{ID: id}, nil
}

func (f *fakeCatalog) FetchMany(ctx context.Context, ids []string) []*model.Anime {
	out := []*model.Anime{}
	for _, id := range ids {
		if !f.failing[id] {
			out = append(out, &model.Anime{ID: id})
		}
	}
	return out
}
