package harvest

import (
	"context"

	"github.com/apex/log"
)

// Cache is a key-value store supplied by the host application. The client
// stores raw response bodies and never expires them; eviction is entirely
// up to the implementation, as is thread-safety.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

const (
	projectsCacheKey = "harvest_projects"
	clientsCacheKey  = "harvest_clients"
	usersCacheKey    = "harvest_users"
)

// cachedGet serves url from the cache when a non-empty value is stored
// under key. Otherwise it fetches url and stores the body, but only if a
// cache is installed and both the fetch and accept succeeded. accept, when
// non-nil, sees every body before it is returned.
func (c *Client) cachedGet(ctx context.Context, key, url string, accept func([]byte) error) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok && len(body) > 0 {
			log.WithField("key", key).Debug("cache hit")
			if accept != nil {
				if err := accept(body); err != nil {
					return nil, err
				}
			}
			return body, nil
		}
		log.WithField("key", key).Debug("cache miss")
	}

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if accept != nil {
		if err := accept(body); err != nil {
			return nil, err
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			log.WithError(err).WithField("key", key).Warn("failed to write response to cache")
		}
	}
	return body, nil
}
