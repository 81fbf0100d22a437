package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler は/healthエンドポイントのハンドラーを返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// WebRouterDeps はNewWebRouterに必要な依存関係をまとめた構造体。
type WebRouterDeps struct {
	// ミドルウェア依存
	Sessions    middleware.SessionFinder
	Users       middleware.UserFinder
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 下流リソースAPI
	Posts PostsClient

	// ページテンプレート
	Templates *Templates

	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker
}

// NewWebRouter はWebサービスの全ルーティングとミドルウェアチェーンを構成した
// chi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → Logging → Session（復元のみ）
//
// 認証必須グループには RequireAuth → RateLimit を追加する。
// ログイン・登録・OAuthルートにはレート制限を適用しない。
func NewWebRouter(deps *WebRouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSessionMiddleware(deps.Sessions, deps.Users, deps.AuthConfig.SessionSecret))

	authHandler := NewAuthHandler(deps.AuthService, deps.Templates, deps.AuthConfig)
	postHandler := NewPostProxyHandler(deps.Posts, deps.Templates)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// トップはハンドラー内で匿名を/homeへ振り分ける
	r.Get("/", postHandler.Index)
	r.Get("/home", postHandler.Home)

	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.LoginSubmit)
	r.Get("/register", authHandler.RegisterPage)
	r.Post("/register", authHandler.RegisterSubmit)
	r.Get("/logout", authHandler.Logout)

	r.Get("/auth/google", authHandler.GoogleLogin)
	r.Get("/auth/google/secrets", authHandler.GoogleCallback)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware("/login"))
		r.Use(deps.RateLimiter.Middleware())

		r.Get("/new", postHandler.NewPost)
		r.Get("/edit/{id}", postHandler.EditPost)

		// リソースAPIへの転送ルート
		r.Post("/api/posts", postHandler.CreatePost)
		r.Post("/api/posts/{id}", postHandler.UpdatePost)
		r.Get("/api/posts/delete/{id}", postHandler.DeletePost)
	})

	return r
}

// APIRouterDeps はNewAPIRouterに必要な依存関係をまとめた構造体。
type APIRouterDeps struct {
	PostService   PostServiceInterface
	Logger        *slog.Logger
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker
}

// NewAPIRouter はリソースAPIサービスの全ルーティングを構成したchi.Routerを返す。
// セッションミドルウェアは持たない。呼び出し元から渡されたユーザーIDを
// そのまま信頼する（Webサービスが唯一の信頼境界）。
func NewAPIRouter(deps *APIRouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	postHandler := NewAPIPostHandler(deps.PostService)

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Post("/", postHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", postHandler.Get)
			r.Patch("/", postHandler.Patch)
			r.Delete("/", postHandler.Delete)
		})
	})

	return r
}
