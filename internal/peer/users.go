package peer

import (
	"context"
	"net/http"
	"strconv"
)

// UserClient asks the user service whether a user exists.
type UserClient struct {
	base
}

// NewUserClient creates a client for the user service at opts.BaseURL.
func NewUserClient(opts Options) *UserClient {
	return &UserClient{base: newBase("users", opts)}
}

// CheckUser reports whether user id exists. NotFound is returned with a nil
// error.
func (c *UserClient) CheckUser(ctx context.Context, id int64) (Existence, error) {
	res, err := c.call(ctx, "check_user", http.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil)
	return res.existence, err
}
