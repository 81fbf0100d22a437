package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/blogman/internal/model"
)

// PostServiceInterface はリソースAPIハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Post, error)
	Get(ctx context.Context, id int64) (*model.Post, error)
	Create(ctx context.Context, userID int64, title, content, author string) (*model.Post, error)
	Update(ctx context.Context, id int64, title, content, author string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// APIPostHandler はリソースAPIサービスの記事CRUDハンドラー。
// リクエストに含まれるユーザーIDを検証せずに信頼する。
// 認証はWebサービス側の責務（呼び出し規約として固定されている）。
type APIPostHandler struct {
	service PostServiceInterface
}

// NewAPIPostHandler はAPIPostHandlerを生成する。
func NewAPIPostHandler(service PostServiceInterface) *APIPostHandler {
	return &APIPostHandler{service: service}
}

// createRequest は記事作成リクエストのボディ。
// idは呼び出し元が認証したユーザーのID。
type createRequest struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// updateRequest は記事部分更新リクエストのボディ。空フィールドは既存値を維持する。
type updateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// List は指定ユーザーの記事一覧を返す。
// GET /posts?id={userID}
func (h *APIPostHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseInt64Query(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid or missing user id")
		return
	}

	posts, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list posts", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// Get は指定IDの記事を返す。
// GET /posts/{id}
func (h *APIPostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		slog.Error("failed to get post", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to get post")
		return
	}
	if post == nil {
		writeJSONError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Create は記事を作成する。
// POST /posts
func (h *APIPostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == 0 {
		writeJSONError(w, http.StatusBadRequest, "user id is required")
		return
	}

	post, err := h.service.Create(r.Context(), req.ID, req.Title, req.Content, req.Author)
	if err != nil {
		slog.Error("failed to create post", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// Patch は記事を部分更新する。
// PATCH /posts/{id}
func (h *APIPostHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.Title, req.Content, req.Author)
	if err != nil {
		slog.Error("failed to update post", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	if !updated {
		writeJSONError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete は記事を削除する。
// DELETE /posts/{id}
func (h *APIPostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete post", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}
	if !deleted {
		writeJSONError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// parseInt64Query は指定クエリパラメータをint64として取り出す。
func parseInt64Query(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode json response", slog.String("error", err.Error()))
	}
}

// writeJSONError は統一フォーマットのJSONエラーレスポンスを書き込む。
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
