package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	registerFn       func(ctx context.Context, email, password string) (*model.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*model.Session, error)
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

const handlerTestSecret = "handler-test-secret"

func testAuthHandler(t *testing.T, svc AuthServiceInterface) *AuthHandler {
	t.Helper()
	templates, err := NewTemplates()
	if err != nil {
		t.Fatalf("NewTemplates() error = %v", err)
	}
	return NewAuthHandler(svc, templates, AuthHandlerConfig{
		BaseURL:       "http://localhost:3000",
		SessionMaxAge: 86400,
		SessionSecret: handlerTestSecret,
	})
}

func testSession(id string) *model.Session {
	return &model.Session{
		ID:        id,
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestLoginPage_RendersForm(t *testing.T) {
	h := testAuthHandler(t, &mockAuthService{})

	rec := httptest.NewRecorder()
	h.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="username"`) {
		t.Error("login page should contain a username field")
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("login page should contain a password field")
	}
}

func TestLoginPage_ShowsErrorMessage(t *testing.T) {
	h := testAuthHandler(t, &mockAuthService{})

	rec := httptest.NewRecorder()
	h.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/login?error=invalid", nil))

	if !strings.Contains(rec.Body.String(), "正しくありません") {
		t.Error("login page should show the invalid-credentials message")
	}
}

func TestLoginSubmit_Success_SetsSignedCookieAndRedirects(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			if email != "user@example.com" || password != "pw" {
				t.Errorf("login called with %q/%q", email, password)
			}
			return testSession("session-1"), nil
		},
	}
	h := testAuthHandler(t, svc)

	form := url.Values{"username": {"user@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.LoginSubmit(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	// Cookie値は署名付きでセッションIDを含むこと
	id, ok := middleware.ParseSessionValue(cookie.Value, handlerTestSecret)
	if !ok {
		t.Fatal("session cookie should carry a valid signature")
	}
	if id != "session-1" {
		t.Errorf("cookie session ID = %q, want session-1", id)
	}
}

func TestLoginSubmit_InvalidCredentials_RedirectsToLogin(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"unknown user", model.NewUserNotFoundError("x@example.com")},
		{"wrong password", model.NewInvalidPasswordError()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (*model.Session, error) {
					return nil, tc.err
				},
			}
			h := testAuthHandler(t, svc)

			form := url.Values{"username": {"x@example.com"}, "password": {"pw"}}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			h.LoginSubmit(rec, req)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != "/login?error=invalid" {
				t.Errorf("Location = %q, want /login?error=invalid", got)
			}
			if sessionCookie(t, rec) != nil {
				t.Error("failed login should not set a session cookie")
			}
		})
	}
}

func TestLoginSubmit_StoreError_Returns500Page(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := testAuthHandler(t, svc)

	form := url.Values{"username": {"x@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.LoginSubmit(rec, req)

	// ストア障害でもレスポンスは必ず返ること
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	// 生のエラー詳細は画面に出さないこと
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("raw store error must not leak to the page")
	}
}

func TestLoginSubmit_MissingFields_RedirectsToLogin(t *testing.T) {
	h := testAuthHandler(t, &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			t.Fatal("login should not be called for empty fields")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.LoginSubmit(rec, req)

	if got := rec.Header().Get("Location"); got != "/login?error=invalid" {
		t.Errorf("Location = %q, want /login?error=invalid", got)
	}
}

func TestRegisterSubmit_Success_SetsCookieAndRedirects(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return testSession("session-new"), nil
		},
	}
	h := testAuthHandler(t, svc)

	form := url.Values{"username": {"new@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.RegisterSubmit(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
	if sessionCookie(t, rec) == nil {
		t.Error("successful registration should set a session cookie")
	}
}

func TestRegisterSubmit_DuplicateEmail_RedirectsToLogin(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return nil, model.NewDuplicateEmailError(email)
		},
	}
	h := testAuthHandler(t, svc)

	form := url.Values{"username": {"taken@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.RegisterSubmit(rec, req)

	// 登録済みの場合はログイン画面へ誘導する
	if got := rec.Header().Get("Location"); got != "/login?error=exists" {
		t.Errorf("Location = %q, want /login?error=exists", got)
	}
}

func TestLogout_DeletesSessionAndClearsCookie(t *testing.T) {
	var deletedID string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deletedID = sessionID
			return nil
		},
	}
	h := testAuthHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{
		Name:  middleware.SessionCookieName,
		Value: middleware.SignSessionValue("session-x", handlerTestSecret),
	})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if deletedID != "session-x" {
		t.Errorf("deleted session = %q, want session-x", deletedID)
	}
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie clear")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative (deletion)", cookie.MaxAge)
	}
}

func TestLogout_WithoutCookie_StillRedirects(t *testing.T) {
	h := testAuthHandler(t, &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			t.Fatal("logout should not be called without a cookie")
			return nil
		},
	})

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
}

func TestGoogleLogin_SetsStateCookieAndRedirects(t *testing.T) {
	var gotState string
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string {
			gotState = state
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		},
	}
	h := testAuthHandler(t, svc)

	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if gotState == "" {
		t.Fatal("expected a generated state")
	}

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthStateCookie {
			stateCookie = c
		}
	}
	if stateCookie == nil {
		t.Fatal("expected oauth state cookie")
	}
	if stateCookie.Value != gotState {
		t.Errorf("state cookie = %q, want %q", stateCookie.Value, gotState)
	}
	if !strings.Contains(rec.Header().Get("Location"), "state="+gotState) {
		t.Errorf("redirect URL should carry the state: %q", rec.Header().Get("Location"))
	}
}

func TestGoogleCallback_Success_SetsSessionCookie(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want auth-code", code)
			}
			return testSession("session-g"), nil
		},
	}
	h := testAuthHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/secrets?code=auth-code&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
	if sessionCookie(t, rec) == nil {
		t.Error("successful callback should set a session cookie")
	}
}

func TestGoogleCallback_StateMismatch_RedirectsToLogin(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			t.Fatal("callback should not be processed on state mismatch")
			return nil, nil
		},
	}
	h := testAuthHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/secrets?code=c&state=attacker", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "legit"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if got := rec.Header().Get("Location"); got != "/login?error=google" {
		t.Errorf("Location = %q, want /login?error=google", got)
	}
}

func TestGoogleCallback_ExchangeFailed_RedirectsToLogin(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return nil, model.NewExchangeFailedError("invalid_grant")
		},
	}
	h := testAuthHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/secrets?code=bad&state=st", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if got := rec.Header().Get("Location"); got != "/login?error=google" {
		t.Errorf("Location = %q, want /login?error=google", got)
	}
}

func TestGoogleCallback_StoreError_Returns500Page(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return nil, model.NewStoreUnavailableError(errors.New("db down"))
		},
	}
	h := testAuthHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/secrets?code=c&state=st", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
