package peer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// Error codes the ads service answers with when a user has nothing to
// delete. Any other 404 from the cascade endpoint is a rejection.
var cascadeNoopCodes = map[string]bool{
	"NO_ADS_FOR_USER": true,
	"USER_NOT_FOUND":  true,
}

// AdsClient calls the ads service on behalf of the user service.
type AdsClient struct {
	base
}

// NewAdsClient creates a client for the ads service at opts.BaseURL.
func NewAdsClient(opts Options) *AdsClient {
	return &AdsClient{base: newBase("ads", opts)}
}

func byUser(userID int64) url.Values {
	return url.Values{"userId": []string{strconv.FormatInt(userID, 10)}}
}

// DeleteAdsByUser deletes every ad owned by userID. NotFound means there was
// nothing to delete (or the ads service does not know the user). A 404 whose
// body carries any other code, such as a failed user check inside the ads
// service, is reported as Rejected.
func (c *AdsClient) DeleteAdsByUser(ctx context.Context, userID int64) (Existence, error) {
	const operation = "delete_ads_by_user"

	res, err := c.call(ctx, operation, http.MethodDelete, "/ads/by-user", byUser(userID))
	if err != nil || res.existence != NotFound {
		return res.existence, err
	}

	code := gjson.GetBytes(res.body, "code").String()
	if cascadeNoopCodes[code] {
		return NotFound, nil
	}
	c.logger.WarnContext(ctx, "peer answered 404 without a no-op code",
		slog.String("peer", c.peer),
		slog.String("operation", operation),
		slog.String("code", code),
	)
	return Rejected, &RejectedError{
		Peer:      c.peer,
		Operation: operation,
		Status:    res.status,
		Detail:    detailOf(res.body),
	}
}

// ListAdsByUser returns the user's ads as raw JSON objects. On NotFound the
// slice is empty and the error nil.
func (c *AdsClient) ListAdsByUser(ctx context.Context, userID int64) ([]json.RawMessage, Existence, error) {
	const operation = "list_ads_by_user"

	res, err := c.call(ctx, operation, http.MethodGet, "/ads/by-user", byUser(userID))
	if err != nil {
		return nil, res.existence, err
	}
	if res.existence == NotFound {
		return []json.RawMessage{}, NotFound, nil
	}

	var ads []json.RawMessage
	if err := json.Unmarshal(res.body, &ads); err != nil {
		return nil, Unreachable, c.unavailable(operation, errors.New("ads listing is not a JSON array"))
	}
	if ads == nil {
		ads = []json.RawMessage{}
	}
	return ads, Found, nil
}
