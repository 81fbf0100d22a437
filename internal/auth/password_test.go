package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
)

func TestHashPassword_ProducesBcryptHash(t *testing.T) {
	hash, err := HashPassword("my-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("hash should be in bcrypt format, got %q", hash)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcryptCost {
		t.Errorf("cost = %d, want %d", cost, bcryptCost)
	}
}

func TestHashPassword_SamePasswordDifferentHashes(t *testing.T) {
	// bcryptはソルト付きなので同一パスワードでもハッシュは毎回異なる
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if a == b {
		t.Error("hashes of the same password should differ (salt)")
	}
}

func TestVerifyLocalPassword_CorrectPassword(t *testing.T) {
	hash, err := HashPassword("correct")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &model.User{ID: 1, Email: "a@example.com", Password: hash}

	if err := verifyLocalPassword(user, "correct"); err != nil {
		t.Errorf("verifyLocalPassword() error = %v, want nil", err)
	}
}

func TestVerifyLocalPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &model.User{ID: 1, Email: "a@example.com", Password: hash}

	err = verifyLocalPassword(user, "wrong")
	if !model.IsAuthCode(err, model.ErrCodeInvalidPassword) {
		t.Errorf("error code should be INVALID_PASSWORD, got %v", err)
	}
}

func TestVerifyLocalPassword_FederatedSentinel(t *testing.T) {
	// フェデレーション専用アカウントはどんな入力でもローカルログイン不可
	user := &model.User{ID: 1, Email: "a@example.com", Password: model.FederatedSentinel}

	for _, input := range []string{model.FederatedSentinel, "", "anything"} {
		err := verifyLocalPassword(user, input)
		if !model.IsAuthCode(err, model.ErrCodeInvalidPassword) {
			t.Errorf("input %q: error code should be INVALID_PASSWORD, got %v", input, err)
		}
	}
}
