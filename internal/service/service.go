// Package service holds the domain logic of the ads and user services,
// including the cross-service existence check and the cascading user delete.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/adboard/adboard/internal/model"
	"github.com/adboard/adboard/internal/peer"
)

// Service errors.
var (
	ErrAdNotFound    = errors.New("ad not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrNoAdsForUser  = errors.New("user has no ads")
	ErrCascadeFailed = errors.New("deleting the user's ads failed")
	ErrInvalidPrice  = errors.New("price must be a non-negative number")
	ErrInvalidInput  = errors.New("invalid input")
)

// AdStore persists ads.
type AdStore interface {
	ListAds(ctx context.Context) ([]*model.Ad, error)
	GetAd(ctx context.Context, id int64) (*model.Ad, error)
	CreateAd(ctx context.Context, ad *model.Ad) error
	UpdateAd(ctx context.Context, ad *model.Ad) error
	DeleteAd(ctx context.Context, id int64) error
	DeleteAds(ctx context.Context, ids []int64) (int64, error)
}

// UserStore persists users.
type UserStore interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserChecker answers whether a user exists in the user service.
type UserChecker interface {
	CheckUser(ctx context.Context, id int64) (peer.Existence, error)
}

// AdsRemote is the part of the ads service the user service depends on.
type AdsRemote interface {
	DeleteAdsByUser(ctx context.Context, userID int64) (peer.Existence, error)
	ListAdsByUser(ctx context.Context, userID int64) ([]json.RawMessage, peer.Existence, error)
}

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
