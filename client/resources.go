package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// Resource operations. Resources are addressed by URL through a query
// parameter, `/resources?url=`.

const resourcesPath = "/resources"

// GetResource fetches the resource for the given URL. A missing resource is
// an error satisfying IsNotFound.
func (c *Client) GetResource(ctx context.Context, rawURL string) (*Resource, error) {
	if err := validateResourceURL(rawURL); err != nil {
		return nil, err
	}
	var r Resource
	if err := c.callJSON(ctx, "get resource", http.MethodGet, resourcesPath, urlQuery(rawURL), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateResource creates the resource for the given URL. Creating a URL that
// already has a resource is an error satisfying IsConflict.
func (c *Client) CreateResource(ctx context.Context, rawURL string) (*Resource, error) {
	if err := validateResourceURL(rawURL); err != nil {
		return nil, err
	}
	var r Resource
	if err := c.callJSON(ctx, "create resource", http.MethodPost, resourcesPath, urlQuery(rawURL), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrCreateResource returns the resource for rawURL, creating it when
// absent. Concurrent creators are tolerated: losing the creation race (409)
// falls back to one final GET, and only one. A 404 on that final GET is a
// genuine failure, not a race to re-enter.
//
//	GET  -> 2xx  returned
//	     -> 404  create
//	create -> 2xx  returned (this caller won the race)
//	       -> 409  someone else won; fetch theirs
//	final GET -> 2xx returned, anything else fails
//
// Every other status, and any network or parse failure, propagates
// immediately as a typed error.
func (c *Client) GetOrCreateResource(ctx context.Context, rawURL string) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateResourceURL(rawURL); err != nil {
		return nil, err
	}
	query := urlQuery(rawURL)

	const opGet = "get resource"
	res, err := c.call(ctx, opGet, http.MethodGet, resourcesPath, query, nil, "")
	if err != nil {
		return nil, err
	}
	switch {
	case res.ok():
		var r Resource
		if err := res.decode(opGet, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case res.Status != http.StatusNotFound:
		return nil, httpError(opGet, res.Status, res.Body)
	}

	log.Debug().Str("url", rawURL).Msg("resource not found, creating")

	const opCreate = "create resource"
	res, err = c.call(ctx, opCreate, http.MethodPost, resourcesPath, query, nil, "")
	if err != nil {
		return nil, err
	}
	switch {
	case res.ok():
		var r Resource
		if err := res.decode(opCreate, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case res.Status != http.StatusConflict:
		return nil, httpError(opCreate, res.Status, res.Body)
	}

	// Lost the creation race; whoever won has the record now.
	log.Debug().Str("url", rawURL).Msg("resource created concurrently, refetching")

	res, err = c.call(ctx, opGet, http.MethodGet, resourcesPath, query, nil, "")
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, httpError(opGet, res.Status, res.Body)
	}
	var r Resource
	if err := res.decode(opGet, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func urlQuery(rawURL string) url.Values {
	q := url.Values{}
	q.Set("url", rawURL)
	return q
}
