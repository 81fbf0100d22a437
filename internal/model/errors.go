// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// AuthError は認証サブシステムの統一エラーフォーマットを表す。
// Codeで失敗の種別を区別し、ハンドラー層でリダイレクト先や
// HTTPステータスの判断に使用する。
type AuthError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *AuthError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	// 資格情報エラー: ログイン画面へのリダイレクトで処理する
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeInvalidPassword = "INVALID_PASSWORD"

	// フェデレーションエラー: OAuthフローの失敗
	ErrCodeExchangeFailed    = "EXCHANGE_FAILED"
	ErrCodeProfileIncomplete = "PROFILE_INCOMPLETE"

	// 登録エラー: 既存アカウントありとしてユーザーに提示する
	ErrCodeDuplicateEmail = "DUPLICATE_EMAIL"

	// ストアエラー: 一般的なサーバーエラーとして提示しログに記録する
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// NewUserNotFoundError は未登録メールアドレスでのログイン失敗エラーを生成する。
func NewUserNotFoundError(email string) *AuthError {
	return &AuthError{
		Code:    ErrCodeUserNotFound,
		Message: fmt.Sprintf("ユーザーが見つかりません: %s", email),
	}
}

// NewInvalidPasswordError はパスワード不一致エラーを生成する。
// フェデレーション専用アカウントへのローカルログイン試行にも使用する。
func NewInvalidPasswordError() *AuthError {
	return &AuthError{
		Code:    ErrCodeInvalidPassword,
		Message: "パスワードが一致しません。",
	}
}

// NewExchangeFailedError は認可コード交換の失敗エラーを生成する。
func NewExchangeFailedError(reason string) *AuthError {
	return &AuthError{
		Code:    ErrCodeExchangeFailed,
		Message: fmt.Sprintf("認可コードの交換に失敗しました: %s", reason),
	}
}

// NewProfileIncompleteError はプロバイダーのプロフィールにメールアドレスが
// 含まれていない場合のエラーを生成する。
func NewProfileIncompleteError() *AuthError {
	return &AuthError{
		Code:    ErrCodeProfileIncomplete,
		Message: "プロバイダーのプロフィールに利用可能なメールアドレスが含まれていません。",
	}
}

// NewDuplicateEmailError は登録済みメールアドレスでの再登録エラーを生成する。
func NewDuplicateEmailError(email string) *AuthError {
	return &AuthError{
		Code:    ErrCodeDuplicateEmail,
		Message: fmt.Sprintf("このメールアドレスは登録済みです: %s", email),
	}
}

// NewStoreUnavailableError はストア障害エラーを生成する。
// 元のエラーはラップせずメッセージに含める（呼び出し元はログ用に原因を別途保持する）。
func NewStoreUnavailableError(cause error) *AuthError {
	return &AuthError{
		Code:    ErrCodeStoreUnavailable,
		Message: fmt.Sprintf("ストアが利用できません: %v", cause),
	}
}

// IsAuthCode はerrが指定コードのAuthErrorかどうかを判定する。
// ラップされたエラーチェーンも辿る。
func IsAuthCode(err error, code string) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}
