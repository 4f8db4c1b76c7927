package watch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/watch"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeIngester) Ingest(_ context.Context, dir string) (model.Blog, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(dir))
	f.mu.Unlock()
	return model.Blog{Name: filepath.Base(dir)}, nil
}

func (f *fakeIngester) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestWatcher_DebouncesBurstIntoOneIngest(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	root := t.TempDir()
	dir := filepath.Join(root, "cats")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	ing := &fakeIngester{}
	w, err := watch.New(root, ing)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for i, name := range []string{"texts.txt", "tumblr_a_540.jpg", "texts.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return len(ing.snapshot()) == 1 })
	time.Sleep(3 * w.Debounce)
	if calls := ing.snapshot(); len(calls) != 1 || calls[0] != "cats" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestWatcher_NewBlogDirectory(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	root := t.TempDir()
	ing := &fakeIngester{}
	w, err := watch.New(root, ing)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()
	w.Debounce = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	dir := filepath.Join(root, "dogs")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// 等待目录加入监控后再写元数据
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "answers.txt"), []byte("Post id: 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		for _, c := range ing.snapshot() {
			if c == "dogs" {
				return true
			}
		}
		return false
	})
}
