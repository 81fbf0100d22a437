// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/blogman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// 認証サブシステムにおける資格情報ストアの唯一の入口。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。
	// 不在は正常な結果であり、nilを返す（エラーにはしない）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、ストアが採番したIDを含む行を返す。
	// passwordにはbcryptハッシュまたはmodel.FederatedSentinelを渡す。
	// email重複時はmodel.ErrCodeDuplicateEmailのAuthErrorを返す
	// （呼び出し元は照合の競合として扱う）。
	Create(ctx context.Context, email, password string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// PostRepository はブログ記事データの永続化インターフェース。
// リソースAPIサービスからのみ使用される。
type PostRepository interface {
	// ListByUserID は指定ユーザーの記事一覧を日付降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]model.Post, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// Create は記事を作成し、採番されたIDを含む行を返す。
	Create(ctx context.Context, post *model.Post) (*model.Post, error)

	// Update は記事を上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, post *model.Post) (bool, error)

	// Delete は指定IDの記事を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
