// 包 store 提供归档索引的存储实现（SQLite），包含表迁移/整博客替换/查询/统计等操作。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tumbl-viewer/internal/model"
)

// ErrNotFound 博客不在索引中。
var ErrNotFound = errors.New("blog not indexed")

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// BlogInfo 为 blogs 表中的一行。
type BlogInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Posts     int       `json:"posts"`
	Skipped   int       `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空业务数据表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blogs`); err != nil {
		return fmt.Errorf("delete blogs: %w", err)
	}
	return nil
}

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blogs (
            name TEXT UNIQUE,
            path TEXT,
            posts INTEGER,
            skipped INTEGER,
            updated_at TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS posts (
            blog TEXT,
            id INTEGER,
            type TEXT,
            date TEXT,
            tags TEXT,
            payload TEXT,
            UNIQUE(blog, id)
        );`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// ReplaceBlog 在一个事务内替换某个博客的全部帖子并更新 blogs 行。
func (s *SQLite) ReplaceBlog(ctx context.Context, name, path string, posts []model.Post, skipped int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM posts WHERE blog = ?`, name); err != nil {
		return fmt.Errorf("delete posts of %s: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts(blog, id, type, date, tags, payload) VALUES(?,?,?,?,?,?)
        ON CONFLICT(blog, id) DO UPDATE SET type=excluded.type, date=excluded.date, tags=excluded.tags, payload=excluded.payload`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range posts {
		payload, mErr := json.Marshal(p)
		if mErr != nil {
			err = fmt.Errorf("marshal post %d: %w", p.ID, mErr)
			return err
		}
		var date sql.NullString
		if p.Date != nil {
			date = sql.NullString{String: *p.Date, Valid: true}
		}
		// uint64 超出 int64 时驱动不接受，按十进制文本存
		if _, err = stmt.ExecContext(ctx, name, idArg(p.ID), p.Type(), date, strings.Join(p.Tags, ", "), string(payload)); err != nil {
			return fmt.Errorf("insert post %d: %w", p.ID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO blogs(name, path, posts, skipped, updated_at) VALUES(?,?,?,?,?)
        ON CONFLICT(name) DO UPDATE SET path=excluded.path, posts=excluded.posts, skipped=excluded.skipped, updated_at=excluded.updated_at`,
		name, path, len(posts), skipped, time.Now())
	if err != nil {
		return fmt.Errorf("upsert blog %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func idArg(id uint64) any {
	if id > 1<<63-1 {
		return fmt.Sprint(id)
	}
	return int64(id)
}

// ListBlogs 返回全部已索引的博客，按名称排序。
func (s *SQLite) ListBlogs(ctx context.Context) ([]BlogInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, path, posts, skipped, updated_at FROM blogs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()
	out := []BlogInfo{}
	for rows.Next() {
		var b BlogInfo
		var updated sql.NullTime
		if err := rows.Scan(&b.Name, &b.Path, &b.Posts, &b.Skipped, &updated); err != nil {
			return nil, fmt.Errorf("scan blogs: %w", err)
		}
		if updated.Valid {
			b.UpdatedAt = updated.Time
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}
	return out, nil
}

// ListPosts 返回某个博客的全部帖子，按 id 升序。
func (s *SQLite) ListPosts(ctx context.Context, blog string) ([]model.Post, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM blogs WHERE name = ?`, blog).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup blog %s: %w", blog, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, blog)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM posts WHERE blog = ?`, blog)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()
	out := []model.Post{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan posts: %w", err)
		}
		var p model.Post
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode post payload: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	// id 可能以文本存储，排序放在代码层
	model.SortByID(out)
	return out, nil
}

// Stats 统计汇总：博客数、帖子数（按类型）、跳过的记录数、更新时间。
func (s *SQLite) Stats(ctx context.Context) (model.Stats, error) {
	st := model.Stats{PostsByType: map[string]int{}}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(skipped),0) FROM blogs`).Scan(&st.BlogsTotal, &st.SkippedTotal); err != nil {
		return st, fmt.Errorf("count blogs: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(1) FROM posts GROUP BY type`)
	if err != nil {
		return st, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return st, fmt.Errorf("scan post counts: %w", err)
		}
		st.PostsByType[typ] = n
		st.PostsTotal += n
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("iterate post counts: %w", err)
	}
	st.UpdatedAt = time.Now()
	return st, nil
}
