package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
)

// bcryptCost はパスワードハッシュのワークファクター。
// デプロイ時のチューニング項目であり、呼び出しごとのパラメータにはしない。
const bcryptCost = 10

// HashPassword は平文パスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// verifyLocalPassword は格納されたマーカーと平文パスワードを照合する。
// マーカーがフェデレーション用センチネルの場合、このアカウントは
// ローカルパスワードを持たないため常に失敗する。
// bcryptの比較は定数時間で行われる。
func verifyLocalPassword(user *model.User, password string) error {
	if !user.HasLocalPassword() {
		return model.NewInvalidPasswordError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return model.NewInvalidPasswordError()
	}

	return nil
}
