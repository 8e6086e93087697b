package fetcher

import (
	"context"
)

// FeedFetcher retrieves the raw RBA exchange-rate document.
type FeedFetcher interface {
	FetchFeed(ctx context.Context) ([]byte, error)
}
