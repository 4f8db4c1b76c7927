// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
// 加载顺序：默认值 -> 配置文件 -> 环境变量（TUMBLVIEW_*，可由 .env 提供）。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tumbl-viewer/internal/blog"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/media"
)

// EnvPrefix 为环境变量前缀。
const EnvPrefix = "TUMBLVIEW"

type Config struct {
	Path        string      `mapstructure:"path" yaml:"PATH"`
	Port        int         `mapstructure:"port" yaml:"PORT"`
	LogLevel    string      `mapstructure:"log_level" yaml:"LOG_LEVEL"`
	LogFormat   string      `mapstructure:"log_format" yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale   string      `mapstructure:"log_locale" yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor    string      `mapstructure:"log_color" yaml:"LOG_COLOR"`   // auto|always|never
	Concurrency Concurrency `mapstructure:"concurrency" yaml:"CONCURRENCY"`
	Database    Database    `mapstructure:"database" yaml:"DATABASE"`
	Resolver    Resolver    `mapstructure:"resolver" yaml:"RESOLVER"`
	Feed        Feed        `mapstructure:"feed" yaml:"FEED"`
}

type Concurrency struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type Database struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // ./tumbl-viewer.db
}

// Resolver 为各格式的文件名截断规则：none|extension|size_suffix。
type Resolver struct {
	ImageTrim string `mapstructure:"image_trim" yaml:"image_trim"`
	VideoTrim string `mapstructure:"video_trim" yaml:"video_trim"`
	MediaTrim string `mapstructure:"media_trim" yaml:"media_trim"`
}

type Feed struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	File    string `mapstructure:"file" yaml:"file"`
}

// Default 返回全部默认值。
func Default() *Config {
	return &Config{
		Path:        ".",
		Port:        7100,
		LogLevel:    "info",
		LogFormat:   "pretty",
		LogLocale:   "zh-CN",
		LogColor:    "auto",
		Concurrency: Concurrency{Workers: 4},
		Database:    Database{DSN: "./tumbl-viewer.db"},
		Resolver:    Resolver{ImageTrim: "size_suffix", VideoTrim: "extension", MediaTrim: "extension"},
		Feed:        Feed{Enabled: false, File: "rss.xml"},
	}
}

// Load 读取配置；path 为空或文件不存在时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	// .env 可选，已存在的环境变量不会被覆盖
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warnf("读取 .env 失败：%v", err)
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("path", d.Path)
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_locale", d.LogLocale)
	v.SetDefault("log_color", d.LogColor)
	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("resolver.image_trim", d.Resolver.ImageTrim)
	v.SetDefault("resolver.video_trim", d.Resolver.VideoTrim)
	v.SetDefault("resolver.media_trim", d.Resolver.MediaTrim)
	v.SetDefault("feed.enabled", d.Feed.Enabled)
	v.SetDefault("feed.file", d.Feed.File)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	d := Default()
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Concurrency.Workers < 0 {
		return errors.New("CONCURRENCY.workers must be >= 0")
	}
	if c.Concurrency.Workers == 0 {
		c.Concurrency.Workers = d.Concurrency.Workers
	}
	if c.Database.DSN == "" {
		c.Database.DSN = d.Database.DSN
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if !logx.ValidLevel(c.LogLevel) {
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	switch strings.ToLower(c.LogFormat) {
	case "pretty", "text", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat)
	}
	if c.LogLocale == "" {
		c.LogLocale = d.LogLocale
	}
	if c.LogColor == "" {
		c.LogColor = d.LogColor
	}
	for _, t := range []struct {
		name string
		val  *string
		def  string
	}{
		{"RESOLVER.image_trim", &c.Resolver.ImageTrim, d.Resolver.ImageTrim},
		{"RESOLVER.video_trim", &c.Resolver.VideoTrim, d.Resolver.VideoTrim},
		{"RESOLVER.media_trim", &c.Resolver.MediaTrim, d.Resolver.MediaTrim},
	} {
		if *t.val == "" {
			*t.val = t.def
		}
		if _, err := media.ParseTrimMode(*t.val); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	if c.Feed.File == "" {
		c.Feed.File = d.Feed.File
	}
	return nil
}

// Save 将配置写为 YAML。
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// BlogOptions 将配置转换为博客读取选项；须在 Validate 之后调用。
func (c *Config) BlogOptions() blog.Options {
	o := blog.DefaultOptions()
	o.Text.ImageTrim, _ = media.ParseTrimMode(c.Resolver.ImageTrim)
	o.Text.VideoTrim, _ = media.ParseTrimMode(c.Resolver.VideoTrim)
	o.JSON.MediaTrim, _ = media.ParseTrimMode(c.Resolver.MediaTrim)
	o.Feed = blog.FeedOptions{Enabled: c.Feed.Enabled, File: c.Feed.File}
	return o
}
