package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sarthak-sharma31/AniMark/internal/catalog"
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

// memoryLists はListRepositoryとProgressRepositoryのインメモリ実装。
type memoryLists struct {
	mu        sync.Mutex
	lists     map[model.ListType][]string
	ongoing   map[string]int
	order     []string
	completed []model.CompletedEntry

	addErr error
}

func newMemoryLists() *memoryLists {
	return &memoryLists{
		lists:   map[model.ListType][]string{},
		ongoing: map[string]int{},
	}
}

func (m *memoryLists) AddEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.addLocked(listType, animeID)
	return nil
}

func (m *memoryLists) addLocked(listType model.ListType, animeID string) {
	for _, id := range m.lists[listType] {
		if id == animeID {
			return
		}
	}
	m.lists[listType] = append(m.lists[listType], animeID)
}

func (m *memoryLists) RemoveEntry(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.lists[listType]
	for i, id := range ids {
		if id == animeID {
			m.lists[listType] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryLists) ListEntries(ctx context.Context, userID string, listType model.ListType) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists[listType]...), nil
}

func (m *memoryLists) RecordProgress(ctx context.Context, userID, animeID string, episode int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ongoing[animeID]; !ok {
		m.order = append(m.order, animeID)
	}
	m.ongoing[animeID] = episode
	m.addLocked(model.ListTypeMarkedAnime, animeID)
	return nil
}

func (m *memoryLists) PromoteToCompleted(ctx context.Context, userID, animeID string, episode int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ep, ok := m.ongoing[animeID]; !ok || ep != episode {
		return false, nil
	}
	m.clearLocked(animeID)
	m.completed = append(m.completed, model.CompletedEntry{
		ID:                 int64(len(m.completed) + 1),
		AnimeID:            animeID,
		LastWatchedEpisode: episode,
	})
	return true, nil
}

func (m *memoryLists) ClearProgress(ctx context.Context, userID, animeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(animeID)
	return nil
}

func (m *memoryLists) clearLocked(animeID string) {
	delete(m.ongoing, animeID)
	for i, id := range m.order {
		if id == animeID {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *memoryLists) ListOngoing(ctx context.Context, userID string) ([]model.OngoingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]model.OngoingEntry, 0, len(m.order))
	for _, id := range m.order {
		entries = append(entries, model.OngoingEntry{AnimeID: id, LastWatchedEpisode: m.ongoing[id]})
	}
	return entries, nil
}

func (m *memoryLists) ListCompleted(ctx context.Context, userID string) ([]model.CompletedEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CompletedEntry(nil), m.completed...), nil
}

// fakeCatalog はcatalog.Serviceのテスト用実装。
// failingに含まれるIDはErrUnavailableを返す。
type fakeCatalog struct {
	anime   map[string]*model.Anime
	failing map[string]bool
	// hanging のIDはコンテキストが終了するまで応答しない
	hanging map[string]bool
}

func (f *fakeCatalog) GetAnimeByID(ctx context.Context, id string) (*model.Anime, error) {
	if f.hanging[id] {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", catalog.ErrUnavailable, ctx.Err())
	}
	if f.failing[id] {
		return nil, catalog.ErrUnavailable
	}
	a, ok := f.anime[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return a, nil
}

func (f *fakeCatalog) FetchMany(ctx context.Context, ids []string) []*model.Anime {
	out := []*model.Anime{}
	for _, id := range ids {
		if a, err := f.GetAnimeByID(ctx, id); err == nil {
			out = append(out, a)
		}
	}
	return out
}

var _ catalog.Service = (*fakeCatalog)(nil)

var errStore = errors.New("connection refused")

func intPtr(v int) *int { return &v }

func animeWithEpisodes(id string, episodes *int) *model.Anime {
	return &model.Anime{ID: id, Title: "Anime " + id, Episodes: episodes}
}

func ids(animes []*model.Anime) []string {
	out := make([]string, len(animes))
	for i, a := range animes {
		out[i] = a.ID
	}
	return out
}

func sorted(s []string) []string {
	c := append([]string(nil), s...)
	sort.Strings(c)
	return c
}
