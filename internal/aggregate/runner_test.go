package aggregate_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tumbl-viewer/internal/aggregate"
	"tumbl-viewer/internal/config"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/store"
)

func archive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"alpha/texts.txt":    "Post id: 2\nTitle: a\nbody\nTags: \nPost id: 1\nTitle: b\nbody\nTags: ",
		"beta/answers.txt":   `[{"id":"9","question":"q","answer":"a"},{"id":"oops"}]`,
		"gamma/images.txt":   `[{"id":`,
		"Index/texts.txt":    "Post id: 3",
		"notablog/readme.md": "",
	}
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	c := config.Default()
	c.Path = root
	c.Concurrency.Workers = 2
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunner_BufferOnly(t *testing.T) {
	var logs bytes.Buffer
	logx.InitWriter(&logs, "debug", "pretty", "en", "never")
	run := aggregate.New(newConfig(t, archive(t)), nil)
	sum, err := run.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.RunID == "" || sum.Blogs != 3 || sum.Posts != 3 || sum.Skipped != 1 || sum.Failed != 1 {
		t.Fatalf("summary=%+v", sum)
	}
	blogs := run.BufferData()
	if len(blogs) != 2 || blogs[0].Name != "alpha" || blogs[1].Name != "beta" {
		t.Fatalf("blogs=%+v", blogs)
	}
	if blogs[0].Posts[0].ID != 1 {
		t.Fatalf("posts should be sorted by id")
	}
	if !strings.Contains(logs.String(), "run="+sum.RunID) {
		t.Fatalf("run id should be logged: %q", logs.String())
	}
}

func TestRunner_WritesStore(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	run := aggregate.New(newConfig(t, archive(t)), s)
	if _, err := run.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.BufferData() != nil {
		t.Fatalf("store mode has no buffer")
	}
	blogs, err := s.ListBlogs(ctx)
	if err != nil || len(blogs) != 2 || blogs[1].Skipped != 1 {
		t.Fatalf("blogs=%+v err=%v", blogs, err)
	}
	posts, err := s.ListPosts(ctx, "alpha")
	if err != nil || len(posts) != 2 {
		t.Fatalf("posts=%v err=%v", posts, err)
	}
}

func TestRunner_CanceledContext(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := aggregate.New(newConfig(t, archive(t)), nil)
	if _, err := run.Run(ctx); err == nil {
		t.Fatalf("expect context error")
	}
}

func TestRunDirs_CanceledStartsNothing(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	root := archive(t)
	cfg := newConfig(t, root)
	cfg.Concurrency.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := aggregate.New(cfg, nil)
	dirs := []string{filepath.Join(root, "alpha"), filepath.Join(root, "beta")}
	sum, err := run.RunDirs(ctx, dirs)
	if err == nil {
		t.Fatalf("expect context error")
	}
	if sum.Posts != 0 || sum.Failed != 0 || len(run.BufferData()) != 0 {
		t.Fatalf("canceled run should not ingest: %+v", sum)
	}
}

func TestBuffer_ReplacesByName(t *testing.T) {
	logx.InitWriter(&bytes.Buffer{}, "none", "pretty", "en", "never")
	root := archive(t)
	run := aggregate.New(newConfig(t, root), nil)
	ctx := context.Background()
	if _, err := run.Ingest(ctx, filepath.Join(root, "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "alpha", "texts.txt"), []byte("Post id: 5\nTags: "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run.Ingest(ctx, filepath.Join(root, "alpha")); err != nil {
		t.Fatal(err)
	}
	blogs := run.BufferData()
	if len(blogs) != 1 || len(blogs[0].Posts) != 1 || blogs[0].Posts[0].ID != 5 {
		t.Fatalf("blogs=%+v", blogs)
	}
}
