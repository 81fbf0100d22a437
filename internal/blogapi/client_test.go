package blogapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewClient(http.DefaultClient, logger, baseURL)
}

func TestListPosts_ForwardsUserIDAsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts" {
			t.Errorf("path = %q, want /posts", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "42" {
			t.Errorf("id query = %q, want 42", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"user_id":42,"title":"t","content":"c","author":"a","date":"2026-01-02T03:04:05Z"}]`))
	}))
	defer server.Close()

	posts, err := testClient(server.URL).ListPosts(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].UserID != 42 || posts[0].Title != "t" {
		t.Errorf("post = %+v", posts[0])
	}
}

func TestGetPost_DecodesPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/7" {
			t.Errorf("path = %q, want /posts/7", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"user_id":1,"title":"記事","content":"本文","author":"a","date":"2026-01-02T03:04:05Z"}`))
	}))
	defer server.Close()

	post, err := testClient(server.URL).GetPost(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if post.ID != 7 || post.Title != "記事" {
		t.Errorf("post = %+v", post)
	}
}

func TestCreatePost_ForwardsPrincipalIDInBody(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	err := testClient(server.URL).CreatePost(context.Background(), 42, PostInput{
		Title:   "タイトル",
		Content: "本文",
		Author:  "user@example.com",
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	// 認証済みプリンシパルのIDがボディのidとして転送されること
	if gotBody["id"] != float64(42) {
		t.Errorf("body id = %v, want 42", gotBody["id"])
	}
	if gotBody["title"] != "タイトル" {
		t.Errorf("body title = %v", gotBody["title"])
	}
}

func TestUpdatePost_SendsPatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", r.Method)
		}
		if r.URL.Path != "/posts/3" {
			t.Errorf("path = %q, want /posts/3", r.URL.Path)
		}
		w.Write([]byte(`{"status":"updated"}`))
	}))
	defer server.Close()

	if err := testClient(server.URL).UpdatePost(context.Background(), 3, PostInput{Title: "新"}); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
}

func TestDeletePost_SendsDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %q, want DELETE", r.Method)
		}
		if r.URL.Path != "/posts/5" {
			t.Errorf("path = %q, want /posts/5", r.URL.Path)
		}
		w.Write([]byte(`{"status":"deleted"}`))
	}))
	defer server.Close()

	if err := testClient(server.URL).DeletePost(context.Background(), 5); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
}

func TestClient_Non2xxStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"post not found"}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).GetPost(context.Background(), 99); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestClient_ServerUnreachable_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 即クローズして到達不能にする

	if _, err := testClient(server.URL).ListPosts(context.Background(), 1); err == nil {
		t.Fatal("expected error when the resource API is unreachable")
	}
}
