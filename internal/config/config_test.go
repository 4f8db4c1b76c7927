package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tumbl-viewer/internal/config"
	"tumbl-viewer/internal/media"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeFile(t, `PATH: /archive
PORT: 9000
LOG_LEVEL: debug
CONCURRENCY:
  workers: 2
RESOLVER:
  image_trim: none
FEED:
  enabled: true
`)
	c, err := config.Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Path != "/archive" || c.Port != 9000 || c.LogLevel != "debug" || c.Concurrency.Workers != 2 {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Resolver.ImageTrim != "none" || c.Resolver.VideoTrim != "extension" || !c.Feed.Enabled {
		t.Fatalf("resolver/feed: %+v %+v", c.Resolver, c.Feed)
	}
	o := c.BlogOptions()
	if o.Text.ImageTrim != media.TrimNone || o.Text.VideoTrim != media.TrimExtension || !o.Feed.Enabled {
		t.Fatalf("blog options: %+v", o)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := config.Default()
	if c.Port != d.Port || c.Path != d.Path || c.Database.DSN != d.Database.DSN || c.Feed.Enabled {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "PORT: 9000\n")
	t.Setenv("TUMBLVIEW_PORT", "9100")
	t.Setenv("TUMBLVIEW_CONCURRENCY_WORKERS", "7")
	c, err := config.Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 9100 || c.Concurrency.Workers != 7 {
		t.Fatalf("env not applied: port=%d workers=%d", c.Port, c.Concurrency.Workers)
	}
}

func TestValidate(t *testing.T) {
	c := &config.Config{}
	if err := c.Validate(); err != nil {
		t.Fatalf("empty config should validate: %v", err)
	}
	if c.Concurrency.Workers != 4 || c.LogFormat != "pretty" || c.Resolver.MediaTrim != "extension" {
		t.Fatalf("defaults not filled: %+v", c)
	}
	bad := []func(*config.Config){
		func(c *config.Config) { c.Concurrency.Workers = -1 },
		func(c *config.Config) { c.Resolver.ImageTrim = "sideways" },
		func(c *config.Config) { c.LogLevel = "loud" },
		func(c *config.Config) { c.Port = 70000 },
		func(c *config.Config) { c.LogFormat = "xml" },
	}
	for i, mut := range bad {
		c := config.Default()
		mut(c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expect validation error", i)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.yaml")
	d := config.Default()
	d.Port = 8123
	if err := d.Save(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, _ := os.ReadFile(p)
	if !strings.Contains(string(b), "PORT: 8123") || !strings.Contains(string(b), "image_trim: size_suffix") {
		t.Fatalf("yaml=%s", b)
	}
	c, err := config.Load(p)
	if err != nil || c.Port != 8123 {
		t.Fatalf("reload: %v %+v", err, c)
	}
}
