package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fieldops/techrank/pkg/cache"
	"github.com/fieldops/techrank/pkg/logger"
	"github.com/fieldops/techrank/pkg/metrics"
)

// Completer sends one prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator builds prompts, calls the model and parses its answer.
// Concurrent requests for the same prompt share one model call, and
// structured answers are cached when a cache is configured.
type Generator struct {
	completer Completer
	cache     *cache.Cache
	ttl       time.Duration
	logger    logger.Logger
	sf        singleflight.Group
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithCache stores structured answers in c for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.cache = c
		g.ttl = ttl
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator returns a Generator over completer.
func NewGenerator(completer Completer, opts ...GeneratorOption) *Generator {
	g := &Generator{completer: completer}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get().Named("insight")
	}
	return g
}

// Generate returns advice for s. Model failures wrap ErrUnavailable;
// unparseable output yields a degraded Response and no error.
func (g *Generator) Generate(ctx context.Context, s Subject) (Response, error) {
	prompt := BuildPrompt(s)
	key := cacheKey(s.Technician.NetworkID, prompt)

	fetch := func(ctx context.Context) (Response, error) {
		raw, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			return Response{}, err
		}
		ins, ok := Parse(raw)
		if !ok {
			return Response{}, &degradedError{raw: raw}
		}
		return Response{Insights: ins, Context: s.context()}, nil
	}

	var (
		resp Response
		hit  bool
		err  error
	)
	if g.cache != nil {
		resp, hit, err = cache.FindAndCache(ctx, g.cache, key, g.ttl, fetch, func(cerr error) {
			g.logger.Warn(ctx, "insight cache unavailable", logger.Error(cerr))
		})
		if hit {
			metrics.RecordInsightCacheHit()
		} else {
			metrics.RecordInsightCacheMiss()
		}
	} else {
		resp, err = g.shared(ctx, key, fetch)
	}

	var de *degradedError
	switch {
	case errors.As(err, &de):
		metrics.RecordInsightRequest("degraded")
		g.logger.Warn(ctx, "model output was not valid insight JSON",
			logger.String("network_id", s.Technician.NetworkID))
		return Degraded(de.raw), nil
	case err != nil:
		metrics.RecordInsightRequest("error")
		g.logger.Error(ctx, "insight generation failed",
			logger.String("network_id", s.Technician.NetworkID), logger.Error(err))
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Response{}, err
	case hit:
		metrics.RecordInsightRequest("cached")
	default:
		metrics.RecordInsightRequest("ok")
	}
	return resp, nil
}

// shared collapses concurrent fetches for key. The fetch is detached from
// the first caller's cancellation and bounded by the client timeout; each
// caller still stops waiting when its own ctx is done.
func (g *Generator) shared(ctx context.Context, key string, fetch cache.FetchFunc[Response]) (Response, error) {
	ch := g.sf.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return Response{}, res.Err
	}
	resp, ok := res.Val.(Response)
	if !ok {
		return Response{}, fmt.Errorf("type mismatch for key %q", key)
	}
	return resp, nil
}

// cacheKey changes whenever the prompt does, so reloaded data never serves
// stale advice.
func cacheKey(networkID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "insight:" + networkID + ":" + hex.EncodeToString(sum[:8])
}
