package model

import "time"

// Ad is a classified listing owned by the ads service.
// UserID references a User in the user service; nothing at the storage layer
// enforces that reference.
type Ad struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a copy of the ad.
func (a *Ad) Clone() *Ad {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// OwnedBy reports whether the ad references the given user.
func (a *Ad) OwnedBy(userID int64) bool {
	return a.UserID == userID
}

// FilterByUser returns the ads owned by userID, preserving order.
func FilterByUser(ads []*Ad, userID int64) []*Ad {
	out := make([]*Ad, 0)
	for _, ad := range ads {
		if ad.OwnedBy(userID) {
			out = append(out, ad)
		}
	}
	return out
}
