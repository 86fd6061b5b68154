package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFilterByUser(t *testing.T) {
	t.Parallel()

	ads := []*Ad{
		{ID: 1, UserID: 10},
		{ID: 2, UserID: 20},
		{ID: 3, UserID: 10},
	}

	tests := []struct {
		name    string
		userID  int64
		wantIDs []int64
	}{
		{"two matches", 10, []int64{1, 3}},
		{"one match", 20, []int64{2}},
		{"no match", 30, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FilterByUser(ads, tt.userID)
			if got == nil {
				t.Fatal("FilterByUser should never return nil")
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, ad := range got {
				if ad.ID != tt.wantIDs[i] {
					t.Errorf("got[%d].ID = %d, want %d", i, ad.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestAd_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := &Ad{ID: 1, Title: "bike", CreatedAt: time.Now()}
	c := orig.Clone()
	c.Title = "car"

	if orig.Title != "bike" {
		t.Errorf("Clone shares state with original: Title = %s", orig.Title)
	}
	if (*Ad)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	t.Parallel()

	u := &User{ID: 1, Username: "a", PasswordHash: "$argon2id$secret"}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
	if c := u.Clone(); c.PasswordHash != u.PasswordHash {
		t.Error("Clone should copy the password hash")
	}
}
