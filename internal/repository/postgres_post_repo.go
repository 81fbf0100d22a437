package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// ListByUserID は指定ユーザーの記事一覧を日付降順で返す。
// 結果はリクエストごとの値として返し、横断的な共有状態は持たない。
func (r *PostgresPostRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, author, date
		 FROM blogs
		 WHERE user_id = $1
		 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Author, &p.Date); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, author, date FROM blogs WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.UserID, &post.Title, &post.Content, &post.Author, &post.Date)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

// Create は記事を作成し、採番されたIDを含む行を返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	created := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blogs (user_id, title, content, author, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, title, content, author, date`,
		post.UserID, post.Title, post.Content, post.Author, post.Date,
	).Scan(&created.ID, &created.UserID, &created.Title, &created.Content, &created.Author, &created.Date)

	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return created, nil
}

// Update は記事を上書き更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = $1, content = $2, author = $3, date = $4 WHERE id = $5`,
		post.Title, post.Content, post.Author, post.Date, post.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete は指定IDの記事を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresPostRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blogs WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
