// 包 export 负责导出：将索引库或内存中的帖子写为 JSON 文件。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/store"
)

// FromStore 读取索引库中全部博客及其帖子并写入 JSON 文件（带缩进格式）。
func FromStore(ctx context.Context, s *store.SQLite, path string) error {
	blogs, err := s.ListBlogs(ctx)
	if err != nil {
		return fmt.Errorf("list blogs: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	out := model.Export{Stats: stats, Blogs: make(map[string][]model.Post, len(blogs))}
	for _, b := range blogs {
		posts, err := s.ListPosts(ctx, b.Name)
		if err != nil {
			return fmt.Errorf("list posts of %s: %w", b.Name, err)
		}
		out.Blogs[b.Name] = posts
	}
	return writeJSON(path, out)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}
