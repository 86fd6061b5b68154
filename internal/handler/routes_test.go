package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adboard/adboard/internal/auth"
	"github.com/adboard/adboard/internal/handler/dto"
	"github.com/adboard/adboard/internal/model"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/repository"
	"github.com/adboard/adboard/internal/service"
)

type stubUsers struct{ existence peer.Existence }

func (s stubUsers) CheckUser(ctx context.Context, id int64) (peer.Existence, error) {
	if s.existence == peer.Unreachable {
		return peer.Unreachable, &peer.UnavailableError{Peer: "users", Operation: "check_user", Err: context.DeadlineExceeded}
	}
	return s.existence, nil
}

type stubAds struct {
	deleteExistence peer.Existence
	listing         []json.RawMessage
	listExistence   peer.Existence
}

func (s stubAds) DeleteAdsByUser(ctx context.Context, userID int64) (peer.Existence, error) {
	if s.deleteExistence == peer.Rejected {
		return peer.Rejected, &peer.RejectedError{Peer: "ads", Operation: "delete_ads_by_user", Status: 500, Detail: "db down"}
	}
	return s.deleteExistence, nil
}

func (s stubAds) ListAdsByUser(ctx context.Context, userID int64) ([]json.RawMessage, peer.Existence, error) {
	return s.listing, s.listExistence, nil
}

func adsRouter(users service.UserChecker) (http.Handler, *repository.MemoryAdStore) {
	store := repository.NewMemoryAdStore()
	h := NewAdHandler(service.NewAdService(store, users, nil, quietLogger()), quietLogger())

	r := chi.NewRouter()
	r.Get("/ads", h.List)
	r.Post("/ads", h.Create)
	r.Put("/ads", h.Update)
	r.Get("/ads/by-user", h.ListByUser)
	r.Delete("/ads/by-user", h.DeleteByUser)
	r.Get("/ads/{id}", h.Get)
	r.Delete("/ads/{id}", h.Delete)
	return r, store
}

func usersRouter(ads service.AdsRemote) (http.Handler, *repository.MemoryUserStore) {
	store := repository.NewMemoryUserStore()
	hasher := auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}
	h := NewUserHandler(service.NewUserService(store, ads, hasher, nil, quietLogger()), quietLogger())

	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
	r.Put("/users", h.Update)
	r.Delete("/users", h.Delete)
	r.Get("/users/ads", h.Ads)
	r.Get("/users/{id}", h.Get)
	return r, store
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdHandler_CreateAndGet(t *testing.T) {
	t.Parallel()

	h, _ := adsRouter(stubUsers{existence: peer.Found})

	rec := do(h, http.MethodPost, "/ads", `{"title":"Bike","description":"red","price":120.5,"userId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotNil(t, created.ID)
	assert.Contains(t, created.Message, "created")

	rec = do(h, http.MethodGet, "/ads/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var ad dto.AdResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ad))
	assert.Equal(t, "Bike", ad.Title)
	assert.Equal(t, 120.5, ad.Price)
	assert.Equal(t, int64(1), ad.UserID)
	assert.False(t, ad.CreatedAt.IsZero())
}

func TestAdHandler_CreateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		users  peer.Existence
		body   string
		status int
		code   string
	}{
		{"unknown user", peer.NotFound, `{"title":"Bike","price":1,"userId":999999}`, http.StatusNotFound, "USER_NOT_FOUND"},
		{"user service down", peer.Unreachable, `{"title":"Bike","price":1,"userId":1}`, http.StatusInternalServerError, "PEER_UNAVAILABLE"},
		{"negative price", peer.Found, `{"title":"Bike","price":-5,"userId":1}`, http.StatusBadRequest, "INVALID_PRICE"},
		{"bad json", peer.Found, `{"title":`, http.StatusBadRequest, "INVALID_JSON"},
		{"string user id", peer.Found, `{"title":"Bike","price":1,"userId":"one"}`, http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, store := adsRouter(stubUsers{existence: tt.users})
			rec := do(h, http.MethodPost, "/ads", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)

			all, _ := store.ListAds(context.Background())
			assert.Empty(t, all)
		})
	}
}

func TestAdHandler_GetErrors(t *testing.T) {
	t.Parallel()

	h, _ := adsRouter(stubUsers{existence: peer.Found})

	rec := do(h, http.MethodGet, "/ads/12", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "AD_NOT_FOUND", body.Code)
	assert.Equal(t, TitleAds, body.Title)

	rec = do(h, http.MethodGet, "/ads/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdHandler_ListEmptyIsArray(t *testing.T) {
	t.Parallel()

	h, _ := adsRouter(stubUsers{existence: peer.Found})
	rec := do(h, http.MethodGet, "/ads", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAdHandler_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	h, store := adsRouter(stubUsers{existence: peer.Found})
	ad := &model.Ad{Title: "Desk", Price: 10, UserID: 2}
	require.NoError(t, store.CreateAd(context.Background(), ad))

	rec := do(h, http.MethodPut, "/ads", `{"id":1,"title":"Oak desk","price":15,"userId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.GetAd(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Oak desk", stored.Title)

	rec = do(h, http.MethodPut, "/ads", `{"title":"no id","price":1,"userId":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodDelete, "/ads/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/ads/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdHandler_ByUser(t *testing.T) {
	t.Parallel()

	h, store := adsRouter(stubUsers{existence: peer.Found})
	for _, owner := range []int64{1, 2, 1} {
		require.NoError(t, store.CreateAd(context.Background(), &model.Ad{Title: "x", UserID: owner}))
	}

	rec := do(h, http.MethodGet, "/ads/by-user?userId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ads []dto.AdResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ads))
	assert.Len(t, ads, 2)

	rec = do(h, http.MethodGet, "/ads/by-user?userId=3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_ADS_FOR_USER", decodeError(t, rec).Code)

	rec = do(h, http.MethodGet, "/ads/by-user", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodDelete, "/ads/by-user?userId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msg dto.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	require.NotNil(t, msg.Count)
	assert.Equal(t, 2, *msg.Count)

	rec = do(h, http.MethodDelete, "/ads/by-user?userId=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_CreateNeverRendersPassword(t *testing.T) {
	t.Parallel()

	h, _ := usersRouter(stubAds{})

	rec := do(h, http.MethodPost, "/users", `{"username":"ann","email":"ann@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "argon2")
	assert.Contains(t, body, `"username":"ann"`)

	rec = do(h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUserHandler_Errors(t *testing.T) {
	t.Parallel()

	h, _ := usersRouter(stubAds{})

	rec := do(h, http.MethodGet, "/users/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, TitleUser, body.Title)
	assert.Equal(t, "USER_NOT_FOUND", body.Code)

	rec = do(h, http.MethodPost, "/users", `{"username":"","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/users", `{"id":9,"username":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/users?id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_DeleteCascadeFailureKeepsUser(t *testing.T) {
	t.Parallel()

	h, store := usersRouter(stubAds{deleteExistence: peer.Rejected})
	require.NoError(t, store.CreateUser(context.Background(), &model.User{Username: "ann", PasswordHash: "x"}))

	rec := do(h, http.MethodDelete, "/users?id=1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "CASCADE_FAILED", body.Code)
	assert.Equal(t, TitleGeneral, body.Title)

	_, err := store.GetUser(context.Background(), 1)
	assert.NoError(t, err)
}

func TestUserHandler_DeleteWithoutAds(t *testing.T) {
	t.Parallel()

	h, store := usersRouter(stubAds{deleteExistence: peer.NotFound})
	require.NoError(t, store.CreateUser(context.Background(), &model.User{Username: "ann", PasswordHash: "x"}))

	rec := do(h, http.MethodDelete, "/users?id=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := store.GetUser(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserHandler_Ads(t *testing.T) {
	t.Parallel()

	listing := []json.RawMessage{json.RawMessage(`{"id":1,"title":"Bike","userId":1}`)}
	h, _ := usersRouter(stubAds{listing: listing, listExistence: peer.Found})

	rec := do(h, http.MethodGet, "/users/ads?id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"title":"Bike","userId":1}]`, rec.Body.String())

	h, _ = usersRouter(stubAds{listing: []json.RawMessage{}, listExistence: peer.NotFound})
	rec = do(h, http.MethodGet, "/users/ads?id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
