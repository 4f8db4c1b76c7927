// 包 aggregate 负责多博客的读取编排：
// - 列出归档根目录下的博客
// - 以信号量限制并发，逐个读取博客目录
// - 结果写入内存缓冲或 SQLite 索引
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"tumbl-viewer/internal/blog"
	"tumbl-viewer/internal/config"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/store"
)

// Runner 聚合执行器，持有配置与存储。
type Runner struct {
	cfg   *config.Config
	opts  blog.Options
	store *store.SQLite
	// 无存储时仅收集内存数据，不落库
	buf *Buffer
}

// Summary 为一轮读取的汇总。
type Summary struct {
	RunID   string
	Blogs   int
	Posts   int
	Skipped int
	Failed  int
}

// New 创建 Runner；s 为 nil 时结果收集到内存缓冲。
func New(cfg *config.Config, s *store.SQLite) *Runner {
	r := &Runner{cfg: cfg, opts: cfg.BlogOptions(), store: s}
	if s == nil {
		r.buf = NewBuffer()
	}
	return r
}

// Run 读取归档根目录（配置 PATH）下的全部博客。
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	names, err := blog.ListBlogs(r.cfg.Path)
	if err != nil {
		return Summary{}, fmt.Errorf("list blogs: %w", err)
	}
	dirs := make([]string, 0, len(names))
	for _, n := range names {
		dirs = append(dirs, filepath.Join(r.cfg.Path, n))
	}
	return r.RunDirs(ctx, dirs)
}

// RunDirs 并发读取给定博客目录；单个博客失败只记录日志。
func (r *Runner) RunDirs(ctx context.Context, dirs []string) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Blogs: len(dirs)}
	log := logx.With("run", sum.RunID)
	log.Info(fmt.Sprintf("开始读取：博客=%d 并发=%d", len(dirs), r.cfg.Concurrency.Workers))

	var posts, skipped, failed atomic.Int64
	sem := make(chan struct{}, max(1, r.cfg.Concurrency.Workers))
	var wg sync.WaitGroup
loop:
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			defer func() { <-sem }()
			b, err := r.ingest(ctx, log, dir)
			if err != nil {
				failed.Add(1)
				log.Warn(fmt.Sprintf("读取博客失败：%s 错误=%v", dir, err))
				return
			}
			posts.Add(int64(len(b.Posts)))
			skipped.Add(int64(b.Skipped))
		}(dir)
	}
	wg.Wait()

	sum.Posts, sum.Skipped, sum.Failed = int(posts.Load()), int(skipped.Load()), int(failed.Load())
	log.Info(fmt.Sprintf("读取完成：帖子=%d 跳过=%d 失败=%d", sum.Posts, sum.Skipped, sum.Failed))
	return sum, ctx.Err()
}

// Ingest 读取单个博客目录并写入结果（供 watch 增量刷新）。
func (r *Runner) Ingest(ctx context.Context, dir string) (model.Blog, error) {
	return r.ingest(ctx, logx.With("run", uuid.NewString()), dir)
}

func (r *Runner) ingest(ctx context.Context, log *slog.Logger, dir string) (model.Blog, error) {
	res, err := blog.Load(dir, r.opts)
	if err != nil {
		return model.Blog{}, err
	}
	b := model.Blog{Name: filepath.Base(res.Dir), Path: res.Dir, Posts: res.Posts, Skipped: res.Skipped()}
	if r.buf != nil {
		r.buf.Add(b)
	} else if err := r.store.ReplaceBlog(ctx, b.Name, b.Path, b.Posts, b.Skipped); err != nil {
		return model.Blog{}, fmt.Errorf("write %s: %w", b.Name, err)
	}
	log.Debug(fmt.Sprintf("[%s] 帖子=%d 跳过=%d", b.Name, len(b.Posts), b.Skipped))
	return b, nil
}

// BufferData 返回内存模式下收集的博客（按名称排序）。
func (r *Runner) BufferData() []model.Blog {
	if r == nil || r.buf == nil {
		return nil
	}
	return r.buf.Snapshot()
}
