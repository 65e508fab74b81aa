package notion

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL     = "https://api.notion.com"
	apiVersion = "2022-06-28"
	userAgent  = "spigell/workload-radar"
	// Max value for page_size in database queries.
	pageSize = 100
	// Upper bound for cursor following. One query should never need more.
	maxPages = 100

	defaultTimeout = 10 * time.Second
	// Notion allows an average of three requests per second per integration.
	defaultRateLimit = 3
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	APIVersion string
	PageSize   int
	MaxPages   int
	Limiter    *rate.Limiter
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent:  userAgent,
		APIURL:     apiURL,
		APIVersion: apiVersion,
		PageSize:   pageSize,
		MaxPages:   maxPages,
		Limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
}

// SetTimeout overrides the transport timeout. Non-positive values keep the default.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.HTTPClient.Timeout = d
}

// SetRateLimit overrides the request rate. Non-positive values disable limiting.
func (c *Client) SetRateLimit(reqPerSec float64) {
	if reqPerSec <= 0 {
		c.Limiter = nil
		return
	}
	c.Limiter = rate.NewLimiter(rate.Limit(reqPerSec), 1)
}
