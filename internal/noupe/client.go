package noupe

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/lzA6/noupe2api/internal/config"
)

// userAgent mimics the browser the embed widget runs in. The backend rejects
// obviously non-browser clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

// scanBufferSize caps a single stream line. Answers are whole documents in
// one event, so lines can be large.
const scanBufferSize = 10 << 20 // 10MB

// ScanResult is the outcome of one pseudo-stream scan. The zero value means
// no answer was captured.
type ScanResult struct {
	answer string
	found  bool
}

// Found wraps a captured answer.
func Found(answer string) ScanResult { return ScanResult{answer: answer, found: true} }

// NotFound reports a scan that yielded no answer.
func NotFound() ScanResult { return ScanResult{} }

// Answer returns the captured answer and whether one was found.
func (r ScanResult) Answer() (string, bool) { return r.answer, r.found }

// Client performs the streaming call against the Noupe backend. It is
// stateless apart from immutable configuration and safe for concurrent use.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient builds a backend client from the loaded configuration. The HTTP
// client timeout bounds the whole call including the long wait for the one
// meaningful event.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.UpstreamTimeout(),
		},
	}
}

// endpointURL builds the per-deployment chat endpoint with the protocol
// query flags the embed widget sends.
func (c *Client) endpointURL() string {
	u := c.cfg.Noupe.BaseURL + "/API/ai-agent/" + url.PathEscape(c.cfg.Noupe.AgentID) + "/chats/" + url.PathEscape(c.cfg.Noupe.ChatID)
	q := url.Values{}
	q.Set("allowMultipleActions", "1")
	q.Set("masterPrompt", "1")
	q.Set("noBuffering", "1")
	return u + "?" + q.Encode()
}

func (c *Client) applyHeaders(r *http.Request) {
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "*/*")
	r.Header.Set("Cookie", c.cfg.Noupe.Cookie)
	r.Header.Set("Origin", c.cfg.Noupe.BaseURL)
	r.Header.Set("Referer", c.cfg.Noupe.BaseURL+"/agent/"+url.PathEscape(c.cfg.Noupe.AgentID))
	r.Header.Set("User-Agent", userAgent)
}

// FetchAnswer posts the payload and scans the backend's line-delimited event
// stream for the first event carrying an answer, closing the connection as
// soon as one is captured. Transport failures, non-2xx statuses, and
// unparseable lines are logged here and reported only as NotFound; the
// orchestrator turns that into the client-visible upstream error.
//
// Parameters:
//   - ctx: Request context; cancellation aborts the in-flight backend call
//   - payload: The JSON payload from BuildPayload
//
// Returns:
//   - ScanResult: Found(answer) on capture, NotFound otherwise
func (c *Client) FetchAnswer(ctx context.Context, payload []byte) ScanResult {
	endpoint := c.endpointURL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Errorf("noupe client: build request: %v", err)
		return NotFound()
	}
	c.applyHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Errorf("noupe client: upstream call failed: %v", err)
		return NotFound()
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("noupe client: close response body error: %v", errClose)
		}
	}()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		log.Errorf("noupe client: upstream status %d: %s", httpResp.StatusCode, bytes.TrimSpace(b))
		return NotFound()
	}

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(nil, scanBufferSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		event, errParse := ParseEvent(line)
		if errParse != nil {
			log.Warnf("noupe client: skipping unparseable line %d: %v", lineNo, errParse)
			continue
		}
		if event.Answer() {
			// First arrival wins; the backend keeps emitting bookkeeping
			// events after the answer, so stop pulling immediately.
			log.Debugf("noupe client: captured answer from %s event at line %d (%d chars)", event.Shape, lineNo, len(event.Content))
			return Found(event.Content)
		}
		log.Debugf("noupe client: skipping %s event at line %d", event.Shape, lineNo)
	}
	if errScan := scanner.Err(); errScan != nil {
		log.Errorf("noupe client: stream read error after %d lines: %v", lineNo, errScan)
		return NotFound()
	}

	log.Warnf("noupe client: stream ended after %d lines without an answer event", lineNo)
	return NotFound()
}
