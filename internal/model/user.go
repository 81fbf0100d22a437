// Package model はドメインモデルを定義する。
package model

import "time"

// FederatedSentinel はローカルパスワードを持たないアカウントのマーカー値。
// Google経由でサインアップしたユーザーのpasswordカラムに格納され、
// このアカウントがフェデレーション認証でのみログイン可能であることを示す。
const FederatedSentinel = "google"

// User はサービス利用ユーザーを表す。
// Passwordはbcryptハッシュ、またはFederatedSentinelのいずれかを保持する。
type User struct {
	ID        int64
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLocalPassword はローカルパスワード認証が可能なアカウントかどうかを返す。
func (u *User) HasLocalPassword() bool {
	return u.Password != FederatedSentinel
}

// Session はユーザーのログインセッションを表す。
// ペイロードは持たず、ユーザーIDへの参照のみを保持する。
// プリンシパル（認証済みユーザー）はリクエストごとにusersテーブルから取り直す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Post はブログ記事を表す。
// UserIDは記事の所有者。リソースAPIは呼び出し元から渡されたこのIDを
// 検証せずに信頼する。
type Post struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}
