package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/adboard/adboard/internal/auth"
	"github.com/adboard/adboard/internal/peer"
)

// cheapHasher keeps argon2 cost low in tests.
var cheapHasher = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUsers answers CheckUser with a fixed outcome, or per-id outcomes.
type fakeUsers struct {
	mu        sync.Mutex
	existence peer.Existence
	err       error
	byID      map[int64]peer.Existence
	delay     time.Duration
	calls     []int64
}

func usersAlways(e peer.Existence) *fakeUsers {
	f := &fakeUsers{existence: e}
	switch e {
	case peer.Rejected:
		f.err = &peer.RejectedError{Peer: "users", Operation: "check_user", Status: 500, Detail: "boom"}
	case peer.Unreachable:
		f.err = &peer.UnavailableError{Peer: "users", Operation: "check_user", Err: io.ErrUnexpectedEOF}
	}
	return f
}

func (f *fakeUsers) CheckUser(ctx context.Context, id int64) (peer.Existence, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return peer.Unreachable, &peer.UnavailableError{Peer: "users", Operation: "check_user", Err: ctx.Err()}
		}
	}

	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return f.existence, f.err
}

func (f *fakeUsers) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeAds scripts the ads service as seen from the user service.
type fakeAds struct {
	deleteExistence peer.Existence
	deleteErr       error
	listAds         []json.RawMessage
	listExistence   peer.Existence
	listErr         error
	deleted         []int64
}

func (f *fakeAds) DeleteAdsByUser(ctx context.Context, userID int64) (peer.Existence, error) {
	f.deleted = append(f.deleted, userID)
	return f.deleteExistence, f.deleteErr
}

func (f *fakeAds) ListAdsByUser(ctx context.Context, userID int64) ([]json.RawMessage, peer.Existence, error) {
	return f.listAds, f.listExistence, f.listErr
}
