package accountclient

import (
	"context"
	"errors"
	"sync"

	qs "github.com/google/go-querystring/query"
	"golang.org/x/sync/singleflight"
)

// Account is one identity record of the account service.
type Account struct {
	UserID string `json:"user_id"`
	Login  string `json:"login"`
	Email  string `json:"email"`
}

type accountLookupRequest struct {
	UserID string `url:"user_id"`
}

// GetAccount fetches the account record for a numeric user id.
func (c *Client) GetAccount(ctx context.Context, uid string) (*Account, error) {
	q, err := qs.Values(accountLookupRequest{UserID: uid})
	if err != nil {
		return nil, err
	}
	account := &Account{}
	if err := c.Get(ctx, "api/account", q, account); err != nil {
		var notFound *ApiNotFoundError
		if errors.As(err, &notFound) {
			return nil, ObjectNotFoundError
		}
		return nil, err
	}
	return account, nil
}

// CachingResolver implements quotascan.IdentityResolver on top of the
// account service, caching lookups for the lifetime of a scan cycle and
// collapsing duplicate in-flight lookups.
type CachingResolver struct {
	client *Client

	mu    sync.RWMutex
	cache map[string]string
	group singleflight.Group
}

func NewCachingResolver(client *Client) *CachingResolver {
	return &CachingResolver{client: client, cache: make(map[string]string)}
}

func (r *CachingResolver) UserName(ctx context.Context, uid string) (string, error) {
	r.mu.RLock()
	name, ok := r.cache[uid]
	r.mu.RUnlock()
	if ok {
		return name, nil
	}

	v, err, _ := r.group.Do(uid, func() (interface{}, error) {
		account, err := r.client.GetAccount(ctx, uid)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[uid] = account.Login
		r.mu.Unlock()
		return account.Login, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
