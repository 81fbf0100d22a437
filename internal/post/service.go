// Package post はリソースAPI側の記事に関するビジネスロジックを提供する。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

// Metrics は記事操作のメトリクス記録インターフェース。
type Metrics interface {
	RecordPostOperation(operation string)
}

// Service は記事のCRUD操作を提供する。
// 呼び出し元から渡されたユーザーIDをそのまま所有者として信頼する。
// 検証はWebサービス側の責務。
type Service struct {
	repo      repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   Metrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.PostRepository, sanitizer security.ContentSanitizerService, metrics Metrics) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// ListByUser は指定ユーザーの記事一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	posts, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.record("list")
	return posts, nil
}

// Get は指定IDの記事を返す。見つからない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Post, error) {
	return s.repo.FindByID(ctx, id)
}

// Create は記事を作成する。タイトルと著者名はタグを除去し、
// 本文は許可リストベースでサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, userID int64, title, content, author string) (*model.Post, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	post := &model.Post{
		UserID:  userID,
		Title:   s.sanitizer.SanitizeStrict(title),
		Content: s.sanitizer.Sanitize(content),
		Author:  s.sanitizer.SanitizeStrict(author),
		Date:    time.Now(),
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	s.record("create")
	return created, nil
}

// Update は記事を部分更新する。空の入力フィールドは既存の値を維持する。
// 対象が存在しない場合はfalseを返す。
func (s *Service) Update(ctx context.Context, id int64, title, content, author string) (bool, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if title != "" {
		existing.Title = s.sanitizer.SanitizeStrict(title)
	}
	if content != "" {
		existing.Content = s.sanitizer.Sanitize(content)
	}
	if author != "" {
		existing.Author = s.sanitizer.SanitizeStrict(author)
	}
	existing.Date = time.Now()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return false, err
	}

	if updated {
		s.record("update")
	}
	return updated, nil
}

// Delete は指定IDの記事を削除する。対象が存在しない場合はfalseを返す。
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.record("delete")
	}
	return deleted, nil
}

func (s *Service) record(operation string) {
	if s.metrics != nil {
		s.metrics.RecordPostOperation(operation)
	}
}
