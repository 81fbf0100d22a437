// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/blogman/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストにプリンシパルを格納するためのキー。
var principalContextKey = contextKey("principal")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// UserFinder はプリンシパル復元時のユーザー再取得に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SignSessionValue はセッションIDにHMAC-SHA256署名を付けてCookie値を生成する。
// 形式は "<id>.<hex署名>"。サーバー側ストアの不透明IDに改ざん検知を加える。
func SignSessionValue(sessionID, secret string) string {
	return sessionID + "." + computeSignature(sessionID, secret)
}

// ParseSessionValue はCookie値を検証し、セッションIDを取り出す。
// 署名が一致しない場合はfalseを返す。比較は定数時間で行う。
func ParseSessionValue(value, secret string) (string, bool) {
	i := strings.LastIndex(value, ".")
	if i <= 0 || i == len(value)-1 {
		return "", false
	}

	sessionID := value[:i]
	signature := value[i+1:]

	expected := computeSignature(sessionID, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return sessionID, true
}

func computeSignature(sessionID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを復元するミドルウェアを返す。
// 有効なセッションが見つかった場合、ユーザー行をストアから取り直して
// プリンシパルとしてリクエストコンテキストに注入する。
// Cookieがない・無効・期限切れの場合は匿名のままリクエストを通す。
// 認証を必須にするのはRequireAuthMiddlewareの役割。
func NewSessionMiddleware(sessions SessionFinder, users UserFinder, secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, ok := ParseSessionValue(cookie.Value, secret)
			if !ok {
				slog.Warn("session cookie signature mismatch")
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.FindByID(r.Context(), sessionID)
			if err != nil {
				// ストア障害。匿名として続行しつつログに残す。
				// 認証必須ルートはRequireAuthMiddlewareがログインへ誘導する。
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			// プリンシパルは毎回usersテーブルから取り直す。
			// セッションにユーザーのコピーを持たないため権限変更の反映遅れがない。
			user, err := users.FindByID(r.Context(), session.UserID)
			if err != nil {
				slog.Error("failed to load principal",
					slog.String("error", err.Error()),
					slog.Int64("user_id", session.UserID),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// セッションは残っているがユーザー行が消えている。匿名扱い。
				slog.Warn("session references missing user",
					slog.Int64("user_id", session.UserID),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAuthMiddleware は未認証リクエストをredirectToへリダイレクトする
// ミドルウェアを返す。SessionMiddlewareの後に配置すること。
func NewRequireAuthMiddleware(redirectTo string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				http.Redirect(w, r, redirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext はリクエストコンテキストからプリンシパルを取得する。
// セッションミドルウェアで認証済みのリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(principalContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// ContextWithPrincipal はコンテキストにプリンシパルを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, principalContextKey, user)
}
