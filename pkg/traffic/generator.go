package traffic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 10 * time.Minute
	DefaultInterval = time.Second
)

// Report is the progress of a running transfer. Datarates are in bytes per second,
// averaged since the start of the transfer.
type Report struct {
	DatarateDL  float64
	DatarateUL  float64
	Elapsed     time.Duration
	Transferred int64
}

// ProgressFunc receives the progress reports of a transfer.
// Returning an error stops the transfer, which is not treated as a failure.
type ProgressFunc func(Report) error

type Options struct {
	// Limits a whole transfer
	Timeout time.Duration
	// Optional, validated before every transfer
	BearerToken string
	Debug       bool
}

// Generator creates upload and download traffic and reports the achieved datarate.
type Generator struct {
	client *req.Client
	token  string
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.BearerToken != "" {
		if err := ValidateToken(opts.BearerToken); err != nil {
			log.Error("bearer token validation failed", zap.NamedError("reason", err))
			return nil, fmt.Errorf("trying to use bearer authentication with invalid token: %w", err)
		}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	g := &Generator{client: req.C(), token: opts.BearerToken}
	if opts.Debug {
		g.client.EnableDebugLog()
	}

	// measurements must not be repeated behind our back
	g.client.SetTimeout(opts.Timeout)
	g.client.SetCommonRetryCount(0)

	if g.token != "" {
		log.Info("using bearer authorization")
		g.client.SetCommonBearerAuthToken(g.token)
	}

	return g, nil
}

// HTTPClient exposes the underlying client, tests install their mock transport on it.
func (g *Generator) HTTPClient() *http.Client {
	return g.client.GetClient()
}

func (g *Generator) checkToken() error {
	if g.token == "" {
		return nil
	}
	return ValidateToken(g.token)
}

// Upload posts size bytes of generated data to url.
func (g *Generator) Upload(ctx context.Context, url string, size int64, report ProgressFunc, interval time.Duration) (Summary, error) {
	if size <= 0 {
		return Summary{}, ErrInvalidSize
	}
	if err := g.checkToken(); err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := newProgress(upload, report, interval, cancel)
	body := &payloadReader{remaining: size, progress: p}

	id := uuid.NewString()
	log.Info("starting upload", zap.String("id", id), zap.String("url", url), zap.Int64("size", size))

	p.start()
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(body).
		Post(url)

	return p.finish(id, errorFromResponse(err, resp))
}

// Download reads and discards the response of url. Reaching limit ends the transfer successfully.
func (g *Generator) Download(ctx context.Context, url string, limit int64, report ProgressFunc, interval time.Duration) (Summary, error) {
	if limit <= 0 {
		return Summary{}, ErrInvalidSize
	}
	if err := g.checkToken(); err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := newProgress(download, report, interval, cancel)
	sink := &discardWriter{remaining: limit, progress: p}

	id := uuid.NewString()
	log.Info("starting download", zap.String("id", id), zap.String("url", url), zap.Int64("limit", limit))

	p.start()
	resp, err := g.client.R().
		SetContext(ctx).
		SetOutput(sink).
		Get(url)

	return p.finish(id, errorFromResponse(err, resp))
}
