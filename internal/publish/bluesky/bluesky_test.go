package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fgfbot/internal/model"
	"fgfbot/internal/publish"
)

type fakePDS struct {
	t       *testing.T
	records []createRecordRequest
	reject  bool
}

func (f *fakePDS) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Identifier != "fgf.bsky.social" || req.Password != "app-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessJwt":"jwt-1","refreshJwt":"r","did":"did:plc:fgf","handle":"fgf.bsky.social"}`))
	})
	mux.HandleFunc("/xrpc/com.atproto.repo.createRecord", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			http.Error(w, "no auth", http.StatusUnauthorized)
			return
		}
		if f.reject {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"InvalidRequest","message":"Record/text must not be longer than 300 graphemes"}`))
			return
		}
		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decode record: %v", err)
		}
		f.records = append(f.records, req)
		_, _ = w.Write([]byte(`{"uri":"at://did:plc:fgf/app.bsky.feed.post/1","cid":"c"}`))
	})
	return mux
}

func startPDS(t *testing.T) (*fakePDS, *httptest.Server) {
	f := &fakePDS{t: t}
	s := httptest.NewServer(f.handler())
	t.Cleanup(s.Close)
	return f, s
}

func TestSinkPostsRichRecord(t *testing.T) {
	pds, srv := startPDS(t)
	sink := New(Config{Handle: "fgf.bsky.social", Password: "app-pass", PDS: srv.URL + "/"})
	sink.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	poster, err := sink.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := poster.Post(context.Background(), model.SavedPost{ID: "abc", Title: "[Steam] Portal"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if len(pds.records) != 1 {
		t.Fatalf("got %d records, want 1", len(pds.records))
	}
	got := pds.records[0]
	if got.Repo != "did:plc:fgf" || got.Collection != "app.bsky.feed.post" {
		t.Fatalf("unexpected target: %+v", got)
	}
	if got.Record.Type != "app.bsky.feed.post" || got.Record.CreatedAt != "2026-10-14T09:30:00Z" {
		t.Fatalf("unexpected record header: %+v", got.Record)
	}
	if got.Record.Text != publish.Rich(model.SavedPost{ID: "abc", Title: "[Steam] Portal"}).String() {
		t.Fatalf("unexpected text %q", got.Record.Text)
	}
	if len(got.Record.Facets) != 4 {
		t.Fatalf("got %d facets, want 4", len(got.Record.Facets))
	}
	link := got.Record.Facets[3]
	if link.Features[0].Type != facetLink || link.Features[0].URI != "https://redd.it/abc" {
		t.Fatalf("unexpected link facet: %+v", link)
	}
	if span := got.Record.Text[link.Index.ByteStart:link.Index.ByteEnd]; span != "https://redd.it/abc" {
		t.Fatalf("link facet spans %q", span)
	}
	if tag := got.Record.Facets[0].Features[0]; tag.Type != facetTag || tag.Tag != "FGF" {
		t.Fatalf("unexpected tag facet: %+v", tag)
	}
}

func TestSinkConnectBadCredentials(t *testing.T) {
	_, srv := startPDS(t)
	sink := New(Config{Handle: "fgf.bsky.social", Password: "wrong", PDS: srv.URL})

	_, err := sink.Connect(context.Background())
	var apiErr *publish.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("Connect err = %v, want 401 APIError", err)
	}

	if _, err := New(Config{PDS: srv.URL}).Connect(context.Background()); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestSinkPostRejected(t *testing.T) {
	pds, srv := startPDS(t)
	pds.reject = true
	poster, err := New(Config{Handle: "fgf.bsky.social", Password: "app-pass", PDS: srv.URL}).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := poster.Post(context.Background(), model.SavedPost{ID: "x", Title: "t"}); err == nil {
		t.Fatal("expected rejection error")
	}
}
