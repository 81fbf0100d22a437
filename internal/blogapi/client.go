// Package blogapi は下流リソースAPI（記事サービス)のHTTPクライアントを提供する。
//
// リソースAPIは転送されたユーザーIDを独自に検証する手段を持たないため、
// このクライアントが唯一の信頼境界となる。認証済みプリンシパルのIDを
// そのまま整数として送出する設計は意図されたものであり、署名付き
// アサーションへの強化は呼び出し規約を保ったまま行えるようにしてある。
package blogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
)

// PostInput は記事の作成・更新に使う入力。
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// createPostRequest は記事作成リクエストのボディ。
// idフィールドは呼び出し元（Webサービス）が認証したユーザーのID。
type createPostRequest struct {
	ID int64 `json:"id"`
	PostInput
}

// Client はリソースAPIのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// ListPosts は指定ユーザーの記事一覧を取得する。
// userIDはプリンシパルのIDであり、クエリパラメータとして転送される。
func (c *Client) ListPosts(ctx context.Context, userID int64) ([]model.Post, error) {
	url := fmt.Sprintf("%s/posts?id=%d", c.baseURL, userID)

	var posts []model.Post
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &posts); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost は指定IDの記事を取得する。
func (c *Client) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	url := fmt.Sprintf("%s/posts/%d", c.baseURL, id)

	var post model.Post
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &post); err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// CreatePost はプリンシパルのIDを添えて記事を作成する。
func (c *Client) CreatePost(ctx context.Context, userID int64, in PostInput) error {
	url := c.baseURL + "/posts"
	body := createPostRequest{ID: userID, PostInput: in}

	if err := c.doJSON(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// UpdatePost は記事を部分更新する。空フィールドは既存値が維持される。
func (c *Client) UpdatePost(ctx context.Context, id int64, in PostInput) error {
	url := fmt.Sprintf("%s/posts/%d", c.baseURL, id)

	if err := c.doJSON(ctx, http.MethodPatch, url, in, nil); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// DeletePost は指定IDの記事を削除する。
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/posts/%d", c.baseURL, id)

	if err := c.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// doJSON はJSONリクエストを送信し、必要に応じてレスポンスをデコードする。
// 2xx以外のステータスはエラーとして返す。
func (c *Client) doJSON(ctx context.Context, method, url string, reqBody, respBody any) error {
	var reader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("resource API request failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("resource API returned error status",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("resource API returned status %d", resp.StatusCode)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}
