package notion

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	// How much of an error body goes into debug logs.
	maxLoggedBody = 300
)

type queryRequest struct {
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

// QueryResponse is a single page of a database query.
type QueryResponse struct {
	Object     string  `json:"object"`
	Results    []Item  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type Item interface{}

type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryResult holds every page returned by a database query.
type QueryResult struct {
	Pages    []*Page
	Requests int
	// Truncated is set when MaxPages stopped the cursor loop early.
	Truncated bool
}

// QueryDatabase queries the database without filters and follows the
// pagination cursor until the store reports no more results.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) (*QueryResult, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, fmt.Errorf("database id is required")
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", strings.TrimRight(c.APIURL, "/"), databaseID)

	result := &QueryResult{}
	body := queryRequest{PageSize: c.PageSize}

	for {
		response, err := c.postQuery(ctx, url, body)
		if err != nil {
			return nil, err
		}
		result.Requests++

		pages := decodePages(response.Results, c.logger)
		result.Pages = append(result.Pages, pages...)

		c.logger.Debug("got response from notion",
			zap.Int("request", result.Requests),
			zap.Int("results", len(response.Results)),
			zap.Bool("has_more", response.HasMore),
		)

		if !response.HasMore || response.NextCursor == nil || *response.NextCursor == "" {
			break
		}

		if c.MaxPages > 0 && result.Requests >= c.MaxPages {
			c.logger.Warn("stopping pagination",
				zap.String("reason", fmt.Sprintf("page limit (%d) reached", c.MaxPages)),
			)
			result.Truncated = true
			break
		}

		c.logger.Debug("additional request needed", zap.String("reason", "has_more is set"))
		body.StartCursor = *response.NextCursor
	}

	return result, nil
}

func (c *Client) postQuery(ctx context.Context, url string, body queryRequest) (*QueryResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}

	return c.parseQueryResponse(resp)
}

func (c *Client) parseQueryResponse(resp *http.Response) (*QueryResponse, error) {
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug("notion rejected the request",
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(data), maxLoggedBody)),
		)
		return nil, newUpstreamError(resp, data)
	}

	var response *QueryResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if response == nil {
		return &QueryResponse{}, nil
	}

	return response, nil
}

func newUpstreamError(resp *http.Response, data []byte) *UpstreamError {
	upstream := &UpstreamError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		upstream.Code = body.Code
		upstream.Message = body.Message
	}

	return upstream
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: waiting for rate limiter: %w", ErrTransport, err)
		}
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Notion-Version", c.APIVersion)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
