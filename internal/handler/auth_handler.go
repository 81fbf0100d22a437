// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	Register(ctx context.Context, email, password string) (*model.Session, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int    // セッションCookieの有効期間（秒）
	SessionSecret string // セッションCookie署名用シークレット
}

// AuthHandler はローカル認証・OAuth認証関連のHTTPハンドラー。
// 認証失敗はログイン画面へのリダイレクトとして提示し、
// ストア障害のみ500の汎用エラーページにする。
type AuthHandler struct {
	service   AuthServiceInterface
	templates *Templates
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, templates *Templates, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		templates: templates,
		config:    config,
	}
}

// LoginPage はログインページを表示する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, "login.html", authPageData{
		ErrorMessage: loginErrorMessage(r.URL.Query().Get("error")),
	})
}

// RegisterPage は新規登録ページを表示する。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, "register.html", authPageData{
		ErrorMessage: registerErrorMessage(r.URL.Query().Get("error")),
	})
}

// LoginSubmit はローカルログインを処理する。
// POST /login
func (h *AuthHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}

	session, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		// 資格情報エラーはログイン画面へ戻す。詳細は画面に出さない。
		if model.IsAuthCode(err, model.ErrCodeUserNotFound) ||
			model.IsAuthCode(err, model.ErrCodeInvalidPassword) {
			http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterSubmit はローカルサインアップを処理する。
// POST /register
// 登録済みメールアドレスの場合は「ログインしてください」として
// ログイン画面へリダイレクトする。生の制約違反は見せない。
func (h *AuthHandler) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/register?error=missing", http.StatusFound)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/register?error=missing", http.StatusFound)
		return
	}

	session, err := h.service.Register(r.Context(), email, password)
	if err != nil {
		if model.IsAuthCode(err, model.ErrCodeDuplicateEmail) {
			http.Redirect(w, r, "/login?error=exists", http.StatusFound)
			return
		}
		slog.Error("registration failed", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout はセッションを破棄する。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if sessionID, ok := middleware.ParseSessionValue(cookie.Value, h.config.SessionSecret); ok {
			if logoutErr := h.service.Logout(r.Context(), sessionID); logoutErr != nil {
				slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
				// ログアウト失敗してもCookieはクリアする
			}
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.service.GetLoginURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback はOAuthコールバックを処理する。
// GET /auth/google/secrets?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Redirect(w, r, "/login?error=google", http.StatusFound)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=google", http.StatusFound)
		return
	}

	// 3. 認証処理
	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		// フェデレーションの失敗はログイン画面へ戻す。
		// 予期しない障害のみ汎用エラーにする。
		if model.IsAuthCode(err, model.ErrCodeExchangeFailed) ||
			model.IsAuthCode(err, model.ErrCodeProfileIncomplete) {
			slog.Warn("oauth callback rejected", slog.String("error", err.Error()))
			http.Redirect(w, r, "/login?error=google", http.StatusFound)
			return
		}
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.templates.RenderError(w)
		return
	}

	// 4. セッションCookieを設定しトップへ
	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusFound)
}

// setSessionCookie は署名付きセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    middleware.SignSessionValue(session.ID, h.config.SessionSecret),
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// loginErrorMessage はクエリのエラーフラグを画面表示用メッセージに変換する。
func loginErrorMessage(code string) string {
	switch code {
	case "invalid":
		return "メールアドレスまたはパスワードが正しくありません。"
	case "exists":
		return "このメールアドレスは登録済みです。ログインしてください。"
	case "google":
		return "Googleログインに失敗しました。もう一度お試しください。"
	default:
		return ""
	}
}

// registerErrorMessage はクエリのエラーフラグを画面表示用メッセージに変換する。
func registerErrorMessage(code string) string {
	switch code {
	case "missing":
		return "メールアドレスとパスワードを入力してください。"
	default:
		return ""
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
