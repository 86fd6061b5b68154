package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/adboard/adboard/internal/model"
)

// MemoryAdStore keeps ads in a map keyed by id. The mutex only keeps the map
// memory-safe; it does not serialize read-modify-write sequences in callers,
// so concurrent updates of the same row are last-write-wins.
type MemoryAdStore struct {
	mu     sync.RWMutex
	ads    map[int64]*model.Ad
	nextID int64
}

// NewMemoryAdStore returns an empty in-memory ad store.
func NewMemoryAdStore() *MemoryAdStore {
	return &MemoryAdStore{ads: make(map[int64]*model.Ad), nextID: 1}
}

// Ping always succeeds.
func (s *MemoryAdStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryAdStore) ListAds(ctx context.Context) ([]*model.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ads := make([]*model.Ad, 0, len(s.ads))
	for _, ad := range s.ads {
		ads = append(ads, ad.Clone())
	}
	sort.Slice(ads, func(i, j int) bool { return ads[i].ID < ads[j].ID })
	return ads, nil
}

func (s *MemoryAdStore) GetAd(ctx context.Context, id int64) (*model.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ad, ok := s.ads[id]
	if !ok {
		return nil, ErrAdNotFound
	}
	return ad.Clone(), nil
}

func (s *MemoryAdStore) CreateAd(ctx context.Context, ad *model.Ad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ad.ID = s.nextID
	s.nextID++
	s.ads[ad.ID] = ad.Clone()
	return nil
}

func (s *MemoryAdStore) UpdateAd(ctx context.Context, ad *model.Ad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.ads[ad.ID]
	if !ok {
		return ErrAdNotFound
	}
	updated := ad.Clone()
	updated.CreatedAt = stored.CreatedAt
	s.ads[ad.ID] = updated
	return nil
}

func (s *MemoryAdStore) DeleteAd(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ads[id]; !ok {
		return ErrAdNotFound
	}
	delete(s.ads, id)
	return nil
}

func (s *MemoryAdStore) DeleteAds(ctx context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := s.ads[id]; ok {
			delete(s.ads, id)
			n++
		}
	}
	return n, nil
}

// MemoryUserStore keeps users in a map keyed by id.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[int64]*model.User
	nextID int64
}

// NewMemoryUserStore returns an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]*model.User), nextID: 1}
}

// Ping always succeeds.
func (s *MemoryUserStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryUserStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryUserStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryUserStore) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryUserStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
