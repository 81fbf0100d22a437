// Package auth はローカル認証、OAuth認証フロー、アイデンティティ照合、
// セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// Profile はOAuthプロバイダーから取得したプロフィールを表す。
type Profile struct {
	Email       string
	DisplayName string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// Metrics は認証イベントのメトリクス記録インターフェース。
// 実装はinternal/metricsのCollector。nilの場合は記録しない。
type Metrics interface {
	RecordLoginSuccess(method string)
	RecordLoginFailure(method, reason string)
	RecordRegistration()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// 検証済みの資格情報（ローカル・フェデレーション）をちょうど1つの
// 永続ユーザー行に対応付け、セッションを発行する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     Metrics
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics Metrics,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// Register はローカルサインアップを処理し、セッションを発行する。
// 登録は作成専用: 既存のメールアドレスにはDuplicateEmailを返す
// （呼び出し元は「ログインしてください」として提示する）。
func (s *Service) Register(ctx context.Context, email, password string) (*model.Session, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError(email)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 事前チェックと挿入の間の競合は一意制約違反として現れ、
	// リポジトリがDuplicateEmailにマッピングして返す。
	user, err := s.userRepo.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.createSession(ctx, user.ID)
}

// Login はローカルのメールアドレスとパスワードを検証し、セッションを発行する。
// 未登録メールはUserNotFound、パスワード不一致およびフェデレーション専用
// アカウントへの試行はInvalidPasswordを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLoginFailure("local", model.ErrCodeUserNotFound)
		return nil, model.NewUserNotFoundError(email)
	}

	if err := verifyLocalPassword(user, password); err != nil {
		s.recordLoginFailure("local", model.ErrCodeInvalidPassword)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess("local")
	}
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("method", "local"),
	)

	return s.createSession(ctx, user.ID)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// プロフィールのメールアドレスをキーとした冪等なfind-or-create照合を行う:
// 既存の行はどちらの認証方法で作成されたかに関わらずそのまま返し、
// 不在の場合のみセンチネルマーカー付きで新規作成する。
// これによりローカルサインアップ済みのメールアドレスでも二次検証なしで
// フェデレーションログインできる（其の逆も同様）。意図された挙動であり、
// テストで性質として固定している。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordLoginFailure("google", model.ErrCodeExchangeFailed)
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.reconcileFederated(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess("google")
	}
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("method", "google"),
	)

	return s.createSession(ctx, user.ID)
}

// reconcileFederated は検証済みメールアドレスを永続ユーザー行に対応付ける。
// 作成時にDuplicateEmailが返った場合は並行リクエストとの競合とみなし、
// 再検索した既存行を採用する。
func (s *Service) reconcileFederated(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	created, err := s.userRepo.Create(ctx, email, model.FederatedSentinel)
	if err != nil {
		if model.IsAuthCode(err, model.ErrCodeDuplicateEmail) {
			again, findErr := s.userRepo.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, fmt.Errorf("failed to refetch user after create race: %w", findErr)
			}
			if again == nil {
				return nil, fmt.Errorf("user vanished after duplicate email on create: %s", email)
			}
			return again, nil
		}
		return nil, err
	}

	slog.Info("new federated user created",
		slog.Int64("user_id", created.ID),
		slog.String("email", created.Email),
	)
	return created, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションから現在のユーザーを取得する。
// ユーザー行は毎回ストアから取り直す。セッションにユーザーのコピーを
// 持たないため、パスワード変更等の反映遅れは起きない。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) recordLoginFailure(method, reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(method, reason)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
