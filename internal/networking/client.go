package networking

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/utils"
)

// maxBodyBytes caps how much of a response body is read per trial. Search
// pages are small; an unbounded read would let a hostile endpoint stretch
// samples arbitrarily.
const maxBodyBytes = 1 << 20

// TrialResult is the outcome of a single timed request. A transport failure
// is not an error at this level: its elapsed time, clamped to the configured
// timeout, is still a valid latency sample (failures must degrade the signal,
// not improve it by omission).
type TrialResult struct {
	Elapsed    time.Duration // wall-clock round trip, clamped to [0, timeout]
	StatusCode int           // 0 when no response was received
	Failed     bool          // transport error, timeout or body-read failure
	Reflected  bool          // candidate seen in the body (reflection check on)
	Err        error         // underlying cause when Failed; informational only
}

// Client issues the timed probe requests. It deliberately has no retry
// logic: the repeat-count sampling in core is the only repetition, and a
// retry inside a trial would corrupt the measurement.
type Client struct {
	baseClient    *http.Client
	cfg           *config.Config
	logger        utils.Logger
	customHeaders http.Header
}

// NewClient creates a Client from the shared config.
func NewClient(cfg *config.Config, logger utils.Logger) (*Client, error) {
	headers, err := utils.ParseHeaderLines(cfg.CustomHeaders)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure,
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Keep-alive matters for measurement quality: with fresh connections
		// every sample would include TCP+TLS setup jitter.
		DisableKeepAlives: false,
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := utils.ParseProxyURL(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Debugf("Routing probe traffic through proxy %s", proxyURL)
	}

	return &Client{
		baseClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect is a terminal answer; following it would add
				// unrelated latency to the sample.
				return http.ErrUseLastResponse
			},
		},
		cfg:           cfg,
		logger:        logger,
		customHeaders: headers,
	}, nil
}

// MeasuredGet performs one trial: a GET to url with the wall clock running
// from just before the request until the body has been consumed, matching
// what the backend's comparison work actually delays. candidate is only used
// for the optional reflection check.
func (c *Client) MeasuredGet(ctx context.Context, url string, candidate string) TrialResult {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		// Malformed URLs cannot produce a meaningful sample; report the
		// ceiling so the candidate is not accidentally favored.
		return TrialResult{Elapsed: c.cfg.RequestTimeout, Failed: true, Err: fmt.Errorf("failed to build request for %s: %w", url, err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	for name, values := range c.customHeaders {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	if err != nil {
		return TrialResult{Elapsed: c.clamp(time.Since(start)), Failed: true, Err: err}
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	elapsed := c.clamp(time.Since(start))

	result := TrialResult{
		Elapsed:    elapsed,
		StatusCode: resp.StatusCode,
	}
	if readErr != nil {
		result.Failed = true
		result.Err = fmt.Errorf("failed to read response body for %s: %w", url, readErr)
		return result
	}
	if c.cfg.CheckReflection {
		result.Reflected = utils.BodyReflectsCandidate(body, candidate)
	}
	return result
}

// clamp bounds a sample to [0, RequestTimeout]. Timed-out requests can report
// slightly more than the ceiling once transport teardown is included.
func (c *Client) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > c.cfg.RequestTimeout {
		return c.cfg.RequestTimeout
	}
	return d
}
