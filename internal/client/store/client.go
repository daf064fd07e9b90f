// Package store contains clients for the app store review APIs that reviews
// are ingested from. Each provider implements Client and registers itself in
// a Registry keyed by its store tag.
package store

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/reviewpulse/internal/domain"
)

// HTTPDoer is the outbound transport used by store clients. Both the plain
// HTTP client and the circuit-breaker wrapper satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client fetches reviews from a single store provider.
type Client interface {
	// Provider returns the store tag this client serves, e.g. "rustore".
	Provider() string
	// FetchReviews returns all currently visible reviews for the given
	// application package. The result carries provider data only; app type
	// and store attribution happen downstream.
	FetchReviews(ctx context.Context, packageName string) ([]domain.RawReview, error)
}

// Registry resolves a store tag to its client. Lookup is case-insensitive.
type Registry struct {
	clients map[string]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		r.clients[strings.ToLower(c.Provider())] = c
	}
	return r
}

// Lookup returns the client for the given store tag, or false when the tag
// is not a supported provider.
func (r *Registry) Lookup(storeType string) (Client, bool) {
	c, ok := r.clients[strings.ToLower(storeType)]
	return c, ok
}
