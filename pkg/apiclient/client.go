package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/pkg/config"
)

// Client is the shared HTTP connection pool to the investment backend.
type Client struct {
	log     logger.Logger
	baseURL string
	*http.Client
}

func NewAPIClient(cfg config.APIConfig, log logger.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("backend url must be absolute http(s): %q", cfg.BaseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConns
	transport.IdleConnTimeout = 90 * time.Second

	return &Client{
		log:     log,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// Endpoint joins path onto the base url. Paths keep their trailing slash,
// the backend redirects without it.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) Close() error {
	c.log.Info("Closing backend connections")
	c.Client.CloseIdleConnections()
	return nil
}
