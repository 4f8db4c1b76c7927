// 包 watch 监控归档目录，博客目录中的文件变化经去抖后触发该博客的重新读取。
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tumbl-viewer/internal/blog"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/model"
)

// DefaultDebounce 为同一博客连续变化的合并窗口。
const DefaultDebounce = 200 * time.Millisecond

// Ingester 重新读取单个博客目录（aggregate.Runner 实现）。
type Ingester interface {
	Ingest(ctx context.Context, dir string) (model.Blog, error)
}

// Watcher 监控 root 及其下的博客目录。
type Watcher struct {
	root     string
	ing      Ingester
	Debounce time.Duration

	fw     *fsnotify.Watcher
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   chan string
}

// New 创建 Watcher 并注册 root 与现有博客目录。
func New(root string, ing Ingester) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", root, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	w := &Watcher{
		root:     abs,
		ing:      ing,
		Debounce: DefaultDebounce,
		fw:       fw,
		timers:   make(map[string]*time.Timer),
		fire:     make(chan string, 16),
	}
	if err := fw.Add(abs); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("read dir %s: %w", abs, err)
	}
	for _, e := range entries {
		if e.IsDir() && e.Name() != blog.IndexDir {
			if err := fw.Add(filepath.Join(abs, e.Name())); err != nil {
				logx.Warnf("无法监控目录 %s：%v", e.Name(), err)
			}
		}
	}
	return w, nil
}

// Close 停止监控。
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fw.Close()
}

// Run 处理事件直到 ctx 取消。
func (w *Watcher) Run(ctx context.Context) error {
	logx.Infof("开始监控归档目录：%s", w.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logx.Warnf("监控错误：%v", err)
		case dir := <-w.fire:
			if !blog.HasMetadata(dir) {
				logx.Debugf("跳过无元数据文件的目录：%s", dir)
				continue
			}
			b, err := w.ing.Ingest(ctx, dir)
			if err != nil {
				logx.Warnf("重新读取博客失败：%s 错误=%v", dir, err)
				continue
			}
			logx.Infof("已重新读取博客 %s：帖子=%d 跳过=%d", b.Name, len(b.Posts), b.Skipped)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	parent := filepath.Dir(ev.Name)
	if parent == w.root {
		// 根目录下的变化：新出现的博客目录需要加入监控
		if filepath.Base(ev.Name) == blog.IndexDir {
			return
		}
		if ev.Op&fsnotify.Create != 0 {
			if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
				if err := w.fw.Add(ev.Name); err != nil {
					logx.Warnf("无法监控目录 %s：%v", ev.Name, err)
				}
				w.schedule(ctx, ev.Name)
			}
		}
		return
	}
	if filepath.Dir(parent) == w.root {
		w.schedule(ctx, parent)
	}
}

// schedule 为博客目录安排一次去抖后的重新读取。
func (w *Watcher) schedule(ctx context.Context, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[dir]; ok {
		t.Reset(w.Debounce)
		return
	}
	w.timers[dir] = time.AfterFunc(w.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, dir)
		w.mu.Unlock()
		select {
		case w.fire <- dir:
		case <-ctx.Done():
		}
	})
}
