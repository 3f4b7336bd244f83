package facebook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fgfbot/internal/model"
	"fgfbot/internal/publish"
)

func TestPostSendsQueryParams(t *testing.T) {
	post := model.SavedPost{ID: "q7", Title: "PSA: Steam sale scams"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v22.0/1234/feed" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("access_token") != "page-token" {
			t.Errorf("access_token = %q", q.Get("access_token"))
		}
		if q.Get("message") != publish.PlainText(post) {
			t.Errorf("message = %q", q.Get("message"))
		}
		_, _ = w.Write([]byte(`{"id":"1234_5678"}`))
	}))
	defer srv.Close()

	poster, err := New(Config{PageID: "1234", AccessToken: "page-token", GraphURL: srv.URL}).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := poster.Post(context.Background(), post); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestPostAddsAppSecretProof(t *testing.T) {
	var proof string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proof = r.URL.Query().Get("appsecret_proof")
		_, _ = w.Write([]byte(`{"id":"1_2"}`))
	}))
	defer srv.Close()

	cfg := Config{PageID: "1", AccessToken: "tok", AppSecret: "shh", GraphURL: srv.URL}
	poster, _ := New(cfg).Connect(context.Background())
	if err := poster.Post(context.Background(), model.SavedPost{ID: "a", Title: "b"}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if proof == "" || proof != appSecretProof("shh", "tok") || len(proof) != 64 {
		t.Fatalf("appsecret_proof = %q", proof)
	}
}

func TestPostExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Error validating access token: Session has expired","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	poster, _ := New(Config{PageID: "1234", AccessToken: "old", GraphURL: srv.URL}).Connect(context.Background())
	err := poster.Post(context.Background(), model.SavedPost{ID: "a", Title: "b"})
	var apiErr *publish.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || !strings.Contains(apiErr.Body, "OAuthException") {
		t.Fatalf("Post err = %v, want 400 APIError", err)
	}
}

func TestPostNetworkErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	poster, _ := New(Config{PageID: "1234", AccessToken: "secret-token", GraphURL: url}).Connect(context.Background())
	err := poster.Post(context.Background(), model.SavedPost{ID: "a", Title: "b"})
	if err == nil {
		t.Fatal("expected network error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error leaks access token: %v", err)
	}
}

func TestConnectRequiresPageAndToken(t *testing.T) {
	if _, err := New(Config{PageID: "1"}).Connect(context.Background()); err == nil {
		t.Fatal("expected error without access token")
	}
	if _, err := New(Config{AccessToken: "t"}).Connect(context.Background()); err == nil {
		t.Fatal("expected error without page id")
	}
}
