// Package facebook posts to a Facebook page feed through the Graph API.
package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fgfbot/internal/model"
	"fgfbot/internal/publish"
)

const (
	Name         = "facebook"
	DefaultGraph = "https://graph.facebook.com"
	GraphVersion = "v22.0"
)

type Config struct {
	AppID     string
	AppSecret string
	// AccessToken is a page access token. Long-lived page tokens still expire,
	// so an expired one shows up as a per-post 400 from the Graph API.
	AccessToken string
	PageID      string
	GraphURL    string // optional; DefaultGraph when empty
	Timeout     time.Duration
}

type Sink struct {
	cfg  Config
	http *http.Client
}

var _ publish.Sink = (*Sink)(nil)

func New(cfg Config) *Sink {
	cfg.GraphURL = strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraph
	}
	return &Sink{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (s *Sink) Name() string { return Name }

type poster struct {
	http     *http.Client
	endpoint string
	token    string
	proof    string
}

func (s *Sink) Connect(ctx context.Context) (publish.Poster, error) {
	if strings.TrimSpace(s.cfg.PageID) == "" || strings.TrimSpace(s.cfg.AccessToken) == "" {
		return nil, errors.New("facebook: page id and access token are required")
	}
	endpoint := fmt.Sprintf("%s/%s/%s/feed", s.cfg.GraphURL, GraphVersion, url.PathEscape(s.cfg.PageID))
	return &poster{
		http:     s.http,
		endpoint: endpoint,
		token:    s.cfg.AccessToken,
		proof:    appSecretProof(s.cfg.AppSecret, s.cfg.AccessToken),
	}, nil
}

// appSecretProof is required by apps with "Require App Secret" enabled.
func appSecretProof(secret, token string) string {
	if secret == "" {
		return ""
	}
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

// Post publishes the message with message and access_token as query parameters.
func (p *poster) Post(ctx context.Context, sp model.SavedPost) error {
	msg := publish.PlainText(sp)
	if strings.TrimSpace(msg) == "" {
		return publish.ErrSkip
	}

	q := url.Values{}
	q.Set("message", msg)
	q.Set("access_token", p.token)
	if p.proof != "" {
		q.Set("appsecret_proof", p.proof)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("facebook: post to page feed: %w", err)
	}
	defer resp.Body.Close()

	return publish.CheckResponse(Name, resp)
}
