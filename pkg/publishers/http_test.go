package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPPublisherPostsEvent(t *testing.T) {
	var received Event
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pub, err := buildHTTPPublisher(context.Background(), Config{
		ID:   "hook",
		Type: "http",
		Settings: map[string]string{
			"endpoint":   server.URL,
			"auth_token": "secret",
		},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	event := Event{
		Type:     EventArticleAccepted,
		SourceID: "src-1",
		Article:  &ArticlePayload{ID: "a1", Title: "Новая статья", Quality: 78.5},
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if authHeader != "Bearer secret" {
		t.Fatalf("auth header = %q", authHeader)
	}
	if received.Type != EventArticleAccepted || received.Article == nil || received.Article.ID != "a1" {
		t.Fatalf("received = %+v", received)
	}
}

func TestHTTPPublisherReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	pub, err := buildHTTPPublisher(context.Background(), Config{
		ID:       "hook",
		Type:     "http",
		Settings: map[string]string{"endpoint": server.URL},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := pub.Publish(context.Background(), Event{Type: EventRunReport}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
