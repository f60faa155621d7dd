// Package contentstore stores composite attestation documents in a
// content-addressed blob store and reads them back by CID.
package contentstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/jpillora/backoff"

	"keystone/internal/attestation/models"
)

// BlobStore is the content-addressed transport: Lighthouse in production, memory
// in development and tests.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
}

// Client uploads and fetches documents. Uploads are retried with backoff; fetches
// are not.
type Client struct {
	blobs    BlobStore
	logger   *slog.Logger
	attempts int
	backoff  backoff.Backoff
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetry sets the number of upload attempts and the backoff window between them.
func WithRetry(attempts int, minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.backoff.Min = minDelay
		c.backoff.Max = maxDelay
	}
}

// WithSleep replaces the wait between attempts. Tests use it to avoid real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient defaults to 3 attempts waiting 1s, 2s (capped at 3s) between them.
func NewClient(blobs BlobStore, opts ...Option) *Client {
	c := &Client{
		blobs:    blobs,
		logger:   slog.Default(),
		attempts: 3,
		backoff:  backoff.Backoff{Min: time.Second, Max: 3 * time.Second, Factor: 2},
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload serializes doc canonically and stores it, returning the CID.
func (c *Client) Upload(ctx context.Context, doc *models.Document) (string, error) {
	data, err := doc.Encode()
	if err != nil {
		return "", malformed("upload", "", "encode document", err)
	}

	b := c.backoff
	b.Reset()
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		id, err := c.blobs.Put(ctx, data)
		if err == nil {
			return id.String(), nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == c.attempts || ctx.Err() != nil {
			break
		}

		wait := b.Duration()
		c.logger.WarnContext(ctx, "content upload failed, retrying",
			"attempt", attempt,
			"max_attempts", c.attempts,
			"wait", wait,
			"error", err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	var se *Error
	if errors.As(lastErr, &se) {
		return "", se
	}
	return "", unavailable("upload", "", "upload failed", lastErr, false)
}

// Fetch retrieves and decodes the document stored at cidStr.
func (c *Client) Fetch(ctx context.Context, cidStr string) (*models.Document, error) {
	id, err := cid.Decode(cidStr)
	if err != nil {
		return nil, malformed("fetch", cidStr, "invalid cid", err)
	}
	data, err := c.blobs.Get(ctx, id)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, unavailable("fetch", cidStr, "fetch failed", err, false)
	}
	doc, err := models.DecodeDocument(data)
	if err != nil {
		return nil, malformed("fetch", cidStr, "document does not match expected shape", err)
	}
	return doc, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
