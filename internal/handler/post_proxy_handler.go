package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/blogapi"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// PostsClient は下流リソースAPIのクライアントインターフェース。
// blogapi.Clientの抽象化。
type PostsClient interface {
	ListPosts(ctx context.Context, userID int64) ([]model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	CreatePost(ctx context.Context, userID int64, in blogapi.PostInput) error
	UpdatePost(ctx context.Context, id int64, in blogapi.PostInput) error
	DeletePost(ctx context.Context, id int64) error
}

// PostProxyHandler はWebサービス側の記事関連ハンドラー。
// リソース変更操作にはプリンシパルのIDを添えてリソースAPIへ転送する。
// リソースAPI側に検証手段はなく、ここが唯一の信頼境界となる。
type PostProxyHandler struct {
	client    PostsClient
	templates *Templates
}

// NewPostProxyHandler はPostProxyHandlerを生成する。
func NewPostProxyHandler(client PostsClient, templates *Templates) *PostProxyHandler {
	return &PostProxyHandler{
		client:    client,
		templates: templates,
	}
}

// Index はトップページを表示する。
// GET /
// 認証済みの場合はプリンシパルの記事一覧、未認証の場合は/homeへ。
func (h *PostProxyHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}

	posts, err := h.client.ListPosts(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to fetch posts", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	h.templates.Render(w, "index.html", indexPageData{
		User:  user,
		Posts: posts,
	})
}

// Home はランディングページを表示する。
// GET /home
func (h *PostProxyHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, "home.html", nil)
}

// NewPost は記事作成ページを表示する。
// GET /new
func (h *PostProxyHandler) NewPost(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, "modify.html", modifyPageData{
		Heading: "新しい記事",
		Submit:  "作成する",
		Action:  "/api/posts",
	})
}

// EditPost は記事編集ページを表示する。
// GET /edit/{id}
func (h *PostProxyHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := h.client.GetPost(r.Context(), id)
	if err != nil {
		slog.Error("failed to fetch post for edit", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	h.templates.Render(w, "modify.html", modifyPageData{
		Heading: "記事の編集",
		Submit:  "更新する",
		Action:  "/api/posts/" + strconv.FormatInt(id, 10),
		Post:    post,
	})
}

// CreatePost は記事を作成する。
// POST /api/posts
// プリンシパルのIDを所有者としてリソースAPIへ転送する。
func (h *PostProxyHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/new", http.StatusFound)
		return
	}

	in := blogapi.PostInput{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Author:  r.PostFormValue("author"),
	}

	if err := h.client.CreatePost(r.Context(), user.ID, in); err != nil {
		slog.Error("failed to create post", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// UpdatePost は記事を部分更新する。
// POST /api/posts/{id}
func (h *PostProxyHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	in := blogapi.PostInput{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Author:  r.PostFormValue("author"),
	}

	if err := h.client.UpdatePost(r.Context(), id, in); err != nil {
		slog.Error("failed to update post", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// DeletePost は記事を削除する。
// GET /api/posts/delete/{id}
func (h *PostProxyHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.client.DeletePost(r.Context(), id); err != nil {
		slog.Error("failed to delete post", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// parseIDParam はURLパラメータ{id}をint64として取り出す。
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
