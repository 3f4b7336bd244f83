// Package bluesky posts to Bluesky through the AT Protocol XRPC API.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fgfbot/internal/model"
	"fgfbot/internal/publish"
)

const (
	Name       = "bluesky"
	DefaultPDS = "https://bsky.social"

	postCollection = "app.bsky.feed.post"
	facetTag       = "app.bsky.richtext.facet#tag"
	facetLink      = "app.bsky.richtext.facet#link"
)

type Config struct {
	Handle   string
	Password string // app password
	PDS      string // optional; DefaultPDS when empty
	Timeout  time.Duration
}

// Sink creates one authenticated session per batch.
type Sink struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

var _ publish.Sink = (*Sink)(nil)

func New(cfg Config) *Sink {
	cfg.PDS = strings.TrimRight(strings.TrimSpace(cfg.PDS), "/")
	if cfg.PDS == "" {
		cfg.PDS = DefaultPDS
	}
	return &Sink{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, now: time.Now}
}

func (s *Sink) Name() string { return Name }

type session struct {
	sink *Sink
	jwt  string
	did  string
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
}

// Connect logs in with handle and app password.
func (s *Sink) Connect(ctx context.Context) (publish.Poster, error) {
	if strings.TrimSpace(s.cfg.Handle) == "" || s.cfg.Password == "" {
		return nil, errors.New("bluesky: handle and password are required")
	}

	var out createSessionResponse
	err := s.xrpc(ctx, "com.atproto.server.createSession", "",
		createSessionRequest{Identifier: s.cfg.Handle, Password: s.cfg.Password}, &out)
	if err != nil {
		return nil, fmt.Errorf("bluesky: login: %w", err)
	}
	if out.AccessJwt == "" || out.DID == "" {
		return nil, errors.New("bluesky: login: empty session")
	}
	return &session{sink: s, jwt: out.AccessJwt, did: out.DID}, nil
}

type feature struct {
	Type string `json:"$type"`
	Tag  string `json:"tag,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type byteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type facet struct {
	Index    byteSlice `json:"index"`
	Features []feature `json:"features"`
}

type postRecord struct {
	Type      string  `json:"$type"`
	Text      string  `json:"text"`
	Facets    []facet `json:"facets,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

func (ss *session) Post(ctx context.Context, p model.SavedPost) error {
	rec := buildRecord(publish.Rich(p), ss.sink.now())
	var out createRecordResponse
	err := ss.sink.xrpc(ctx, "com.atproto.repo.createRecord", ss.jwt,
		createRecordRequest{Repo: ss.did, Collection: postCollection, Record: rec}, &out)
	if err != nil {
		return fmt.Errorf("bluesky: create post: %w", err)
	}
	return nil
}

func buildRecord(rt *publish.RichText, at time.Time) postRecord {
	rec := postRecord{
		Type:      postCollection,
		Text:      rt.String(),
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
	}
	for _, f := range rt.Facets() {
		ft := feature{}
		switch f.Kind {
		case publish.FacetTag:
			ft.Type, ft.Tag = facetTag, f.Value
		case publish.FacetLink:
			ft.Type, ft.URI = facetLink, f.Value
		default:
			continue
		}
		rec.Facets = append(rec.Facets, facet{
			Index:    byteSlice{ByteStart: f.Start, ByteEnd: f.End},
			Features: []feature{ft},
		})
	}
	return rec
}

// xrpc performs a procedure call. jwt may be empty for unauthenticated calls.
func (s *Sink) xrpc(ctx context.Context, method, jwt string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PDS+"/xrpc/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if jwt != "" {
		req.Header.Set("Authorization", "Bearer "+jwt)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := publish.CheckResponse(Name, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}
