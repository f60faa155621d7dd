package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ipfs/go-cid"

	"keystone/pkg/platform/circuit"
)

const (
	maxDocumentBytes = 4 << 20
	uploadFileName   = "attestation.json"
)

// LighthouseClient is a BlobStore backed by the Lighthouse IPFS pinning API for
// writes and its public gateway for reads.
type LighthouseClient struct {
	apiKey     string
	apiURL     string
	gatewayURL string
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuit.Breaker
	cooldown   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	openedAt time.Time
}

// LighthouseOption configures a LighthouseClient.
type LighthouseOption func(*LighthouseClient)

func WithAPIURL(u string) LighthouseOption {
	return func(c *LighthouseClient) { c.apiURL = strings.TrimRight(u, "/") }
}

func WithGatewayURL(u string) LighthouseOption {
	return func(c *LighthouseClient) { c.gatewayURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) LighthouseOption {
	return func(c *LighthouseClient) { c.httpClient = hc }
}

func WithLighthouseLogger(logger *slog.Logger) LighthouseOption {
	return func(c *LighthouseClient) { c.logger = logger }
}

// WithBreaker opens after failures consecutive transport failures and lets a
// request through once cooldown has passed.
func WithBreaker(failures int, cooldown time.Duration) LighthouseOption {
	return func(c *LighthouseClient) {
		c.breaker = circuit.New("lighthouse", circuit.WithFailureThreshold(failures))
		c.cooldown = cooldown
	}
}

func NewLighthouseClient(apiKey string, opts ...LighthouseOption) *LighthouseClient {
	c := &LighthouseClient{
		apiKey:     apiKey,
		apiURL:     "https://node.lighthouse.storage",
		gatewayURL: "https://gateway.lighthouse.storage",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		breaker:    circuit.New("lighthouse", circuit.WithFailureThreshold(5)),
		cooldown:   15 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Put uploads data as a single file and returns the CID Lighthouse assigned.
func (c *LighthouseClient) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := c.allow("upload", ""); err != nil {
		return cid.Undef, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", uploadFileName)
	if err != nil {
		return cid.Undef, unavailable("upload", "", "build multipart body", err, false)
	}
	if _, err := part.Write(data); err != nil {
		return cid.Undef, unavailable("upload", "", "build multipart body", err, false)
	}
	if err := mw.Close(); err != nil {
		return cid.Undef, unavailable("upload", "", "build multipart body", err, false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/add", &body)
	if err != nil {
		return cid.Undef, unavailable("upload", "", "build request", err, false)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return cid.Undef, unavailable("upload", "", "request failed", err, ctx.Err() == nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readSnippet(resp.Body)
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		if retryable {
			c.recordFailure(ctx)
		}
		return cid.Undef, unavailable("upload", "", fmt.Sprintf("lighthouse returned %d", resp.StatusCode), fmt.Errorf("%s", msg), retryable)
	}

	var out addResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		c.recordFailure(ctx)
		return cid.Undef, unavailable("upload", "", "decode lighthouse response", err, true)
	}
	id, err := cid.Decode(strings.TrimSpace(out.Hash))
	if err != nil {
		return cid.Undef, unavailable("upload", out.Hash, "lighthouse returned an invalid cid", err, false)
	}
	c.recordSuccess(ctx)
	return id, nil
}

// Get reads the blob through the gateway.
func (c *LighthouseClient) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	cidStr := id.String()
	if err := c.allow("fetch", cidStr); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/ipfs/"+cidStr, nil)
	if err != nil {
		return nil, unavailable("fetch", cidStr, "build request", err, false)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return nil, unavailable("fetch", cidStr, "request failed", err, false)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			c.recordFailure(ctx)
		}
		return nil, unavailable("fetch", cidStr, fmt.Sprintf("gateway returned %d", resp.StatusCode), fmt.Errorf("%s", readSnippet(resp.Body)), false)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		c.recordFailure(ctx)
		return nil, unavailable("fetch", cidStr, "read body", err, false)
	}
	if len(data) > maxDocumentBytes {
		return nil, malformed("fetch", cidStr, "document exceeds size limit", nil)
	}
	c.recordSuccess(ctx)
	return data, nil
}

// allow fails fast while the breaker is open and the cooldown has not elapsed.
func (c *LighthouseClient) allow(op, cidStr string) error {
	if !c.breaker.IsOpen() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(c.openedAt) < c.cooldown {
		return unavailable(op, cidStr, "circuit open", nil, false)
	}
	// let one request through per cooldown window
	c.openedAt = c.now()
	return nil
}

func (c *LighthouseClient) recordFailure(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.mu.Lock()
		c.openedAt = c.now()
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "lighthouse circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *LighthouseClient) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "lighthouse circuit closed", "breaker", c.breaker.Name())
	}
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
