// Package notion wraps the Notion API for reading enquiry databases.
package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client defines the Notion API operations used by this application.
type Client interface {
	GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error)
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// notionClient implements Client by wrapping a *notionapi.Client.
type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a new Notion client with the given integration token.
// By default, API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
		log:     zap.L().With(zap.String("component", "notion")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
// Throttled calls are logged at debug level.
func (c *notionClient) wait(ctx context.Context, op string) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(err, "notion: rate limit %s", op)
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		c.log.Debug("throttled", zap.String("op", op), zap.Duration("waited", waited))
	}
	return nil
}

func (c *notionClient) GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error) {
	if err := c.wait(ctx, "get database"); err != nil {
		return nil, err
	}
	db, err := c.inner.Database.Get(ctx, notionapi.DatabaseID(dbID))
	if err != nil {
		return nil, eris.Wrapf(err, "notion: get database %s", dbID)
	}
	return db, nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.wait(ctx, "query database"); err != nil {
		return nil, err
	}
	resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", dbID)
	}
	c.log.Debug("queried database",
		zap.String("database_id", dbID),
		zap.Int("results", len(resp.Results)),
		zap.Bool("has_more", resp.HasMore),
	)
	return resp, nil
}
