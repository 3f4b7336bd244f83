// Package reddit reads a subreddit's newest submissions through Reddit's
// OAuth API using app-only (client credentials) authentication.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"fgfbot/internal/model"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL   = "https://oauth.reddit.com"
)

// ErrMissingCredentials is returned by New when the client cannot be built.
var ErrMissingCredentials = errors.New("reddit: client id, client secret and user agent are required")

type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// Optional overrides (tests, proxies).
	TokenURL string
	APIURL   string
	Timeout  time.Duration // 0 means no client timeout
}

// Client is an authenticated Reddit API client. Tokens are fetched lazily on
// the first request and refreshed by the oauth2 transport.
type Client struct {
	http   *http.Client
	apiURL string
	ua     string
}

// New builds a client. It does not contact Reddit.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" || strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, ErrMissingCredentials
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	// Reddit rejects requests without a descriptive User-Agent, token request included.
	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &uaTransport{ua: cfg.UserAgent, next: http.DefaultTransport},
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, cc.TokenSource(ctx))
	hc.Timeout = cfg.Timeout

	return &Client{http: hc, apiURL: apiURL, ua: cfg.UserAgent}, nil
}

type uaTransport struct {
	ua   string
	next http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}

// listing mirrors the parts of a Reddit Listing we read.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				FlairCSS string `json:"link_flair_css_class"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// New returns up to limit of the newest submissions in subreddit, newest first.
func (c *Client) New(ctx context.Context, subreddit string, limit int) ([]model.Post, error) {
	sub := strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if sub == "" {
		return nil, errors.New("reddit: subreddit is empty")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	endpoint := fmt.Sprintf("%s/r/%s/new?%s", c.apiURL, url.PathEscape(sub), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: fetch r/%s: %w", sub, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reddit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reddit: r/%s returned status %d: %s", sub, resp.StatusCode, truncate(string(body), 200))
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	posts := make([]model.Post, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		posts = append(posts, model.Post{
			ID:    ch.Data.ID,
			Title: ch.Data.Title,
			Flair: ch.Data.FlairCSS,
		})
	}
	return posts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
