// Package twitter posts to X (Twitter) through the v2 tweets endpoint with
// OAuth 1.0a user-context signing.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"fgfbot/internal/model"
	"fgfbot/internal/publish"
)

const (
	Name       = "twitter"
	DefaultAPI = "https://api.twitter.com"
)

type Config struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	APIURL            string // optional; DefaultAPI when empty
	Timeout           time.Duration
}

type Sink struct {
	cfg Config
}

var _ publish.Sink = (*Sink)(nil)

func New(cfg Config) *Sink {
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPI
	}
	return &Sink{cfg: cfg}
}

func (s *Sink) Name() string { return Name }

type poster struct {
	http     *http.Client
	endpoint string
}

// Connect builds a signing client. Credentials are only verified by the first tweet.
func (s *Sink) Connect(ctx context.Context) (publish.Poster, error) {
	c := s.cfg
	if c.ConsumerKey == "" || c.ConsumerSecret == "" || c.AccessToken == "" || c.AccessTokenSecret == "" {
		return nil, errors.New("twitter: consumer key/secret and access token/secret are required")
	}
	base := &http.Client{Timeout: c.Timeout}
	// oauth1's transport inherits the base client from ctx.
	octx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	hc := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret).
		Client(octx, oauth1.NewToken(c.AccessToken, c.AccessTokenSecret))
	hc.Timeout = c.Timeout
	return &poster{http: hc, endpoint: c.APIURL + "/2/tweets"}, nil
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (p *poster) Post(ctx context.Context, sp model.SavedPost) error {
	body, err := json.Marshal(tweetRequest{Text: publish.PlainText(sp)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("twitter: create tweet: %w", err)
	}
	defer resp.Body.Close()

	if err := publish.CheckResponse(Name, resp); err != nil {
		return err
	}
	var out tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("twitter: decode response: %w", err)
	}
	if out.Data.ID == "" {
		return errors.New("twitter: response carried no tweet id")
	}
	return nil
}
