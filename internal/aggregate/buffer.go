package aggregate

import (
	"sort"
	"sync"

	"tumbl-viewer/internal/model"
)

// Buffer 在无存储模式下收集读取结果，避免落库。
type Buffer struct {
	mu    sync.Mutex
	blogs map[string]model.Blog // key: name
}

func NewBuffer() *Buffer {
	return &Buffer{blogs: make(map[string]model.Blog)}
}

// Add 写入或替换同名博客。
func (b *Buffer) Add(blog model.Blog) {
	if blog.Name == "" {
		return
	}
	b.mu.Lock()
	b.blogs[blog.Name] = blog
	b.mu.Unlock()
}

// Snapshot 返回按名称排序的副本。
func (b *Buffer) Snapshot() []model.Blog {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Blog, 0, len(b.blogs))
	for _, v := range b.blogs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
