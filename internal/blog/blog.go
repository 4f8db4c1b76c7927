// 包 blog 负责单个博客目录的读取：
// - 四类元数据文件（videos/images/texts/answers），按内容首字符区分 JSON 与文本格式
// - 可选的订阅快照 rss.xml
// - 目录只快照一次，所有帖子共享同一份媒体索引，合并后按 id 排序
package blog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"tumbl-viewer/internal/feeds"
	"tumbl-viewer/internal/jsonfmt"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/media"
	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/textfmt"
)

// IndexDir 为下载工具生成的索引目录，不是博客。
const IndexDir = "Index"

// ErrNotFound 博客目录不存在。
var ErrNotFound = errors.New("blog directory not found")

// MetadataKind 元数据文件种类。
type MetadataKind int

const (
	Videos MetadataKind = iota
	Images
	Texts
	Answers
)

// AllKinds 返回全部种类，顺序即加载顺序。
func AllKinds() []MetadataKind { return []MetadataKind{Videos, Images, Texts, Answers} }

// FileName 返回元数据文件名。
func (k MetadataKind) FileName() string {
	switch k {
	case Videos:
		return "videos.txt"
	case Images:
		return "images.txt"
	case Texts:
		return "texts.txt"
	case Answers:
		return "answers.txt"
	}
	return ""
}

// PostKind 返回该文件产生的帖子类型。
func (k MetadataKind) PostKind() string {
	switch k {
	case Videos:
		return model.TypeVideo
	case Images:
		return model.TypeImage
	case Texts:
		return model.TypeText
	case Answers:
		return model.TypeAnswer
	}
	return ""
}

func (k MetadataKind) String() string { return k.FileName() }

// IsJSON 报告元数据内容是否为 JSON 格式。
func IsJSON(content []byte) bool { return jsonfmt.IsJSON(content) }

// FeedOptions 订阅快照设置。
type FeedOptions struct {
	Enabled bool
	File    string
}

// Options 汇总各格式的解析选项。
type Options struct {
	Text textfmt.Options
	JSON jsonfmt.Options
	Feed FeedOptions
}

// DefaultOptions 返回默认选项（rss.xml 默认关闭）。
func DefaultOptions() Options {
	return Options{
		Text: textfmt.DefaultOptions(),
		JSON: jsonfmt.DefaultOptions(),
		Feed: FeedOptions{File: feeds.DefaultFile},
	}
}

// RecordError 描述一条被跳过的记录；Source 为文件名，Index 为记录在文件中的序号（从 0 开始）。
type RecordError struct {
	Source string
	Index  int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d: %v", e.Source, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// FileResult 为单个元数据文件的解析结果。
type FileResult struct {
	Kind    MetadataKind
	Present bool
	JSON    bool
	Posts   []model.Post
	Errors  []*RecordError
}

// Result 为整个博客目录的解析结果。
type Result struct {
	Dir    string
	Posts  []model.Post
	Errors []*RecordError
}

// Skipped 返回被跳过的记录数。
func (r Result) Skipped() int { return len(r.Errors) }

// LoadFile 解析单个元数据文件；文件不存在时返回空结果。
// 单条记录的硬错误被记录并跳过，读取失败或 JSON 数组无法解码则整个文件失败。
func LoadFile(dir string, kind MetadataKind, r *media.Resolver, opts Options) (FileResult, error) {
	res := FileResult{Kind: kind}
	path := filepath.Join(dir, kind.FileName())
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	res.Present = true
	if IsJSON(content) {
		res.JSON = true
		objs, err := jsonfmt.ParseArray(content)
		if err != nil {
			return res, fmt.Errorf("%s: %w", path, err)
		}
		b := jsonfmt.NewBuilder(r, opts.JSON)
		for i, raw := range objs {
			p, err := b.Build(kind.PostKind(), raw)
			if err != nil {
				res.skip(kind.FileName(), i, err)
				continue
			}
			res.Posts = append(res.Posts, p)
		}
		return res, nil
	}
	b := textfmt.NewBuilder(r, opts.Text)
	sc := textfmt.NewRecordScanner(string(content))
	for i := 0; sc.Scan(); i++ {
		p, err := b.ParsePost(kind.PostKind(), sc.Record())
		if err != nil {
			res.skip(kind.FileName(), i, err)
			continue
		}
		res.Posts = append(res.Posts, p)
	}
	return res, nil
}

func (res *FileResult) skip(source string, i int, err error) {
	re := &RecordError{Source: source, Index: i, Err: err}
	logx.Warnf("跳过记录：%v", re)
	res.Errors = append(res.Errors, re)
}

// Load 读取整个博客目录。
func Load(dir string, opts Options) (Result, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	idx, err := media.Snapshot(dir)
	if err != nil {
		return Result{}, err
	}
	r := media.NewResolver(idx)
	out := Result{Dir: idx.Dir(), Posts: []model.Post{}}
	seen := make(map[uint64]struct{})
	for _, kind := range AllKinds() {
		if !idx.Contains(kind.FileName()) {
			continue
		}
		fr, err := LoadFile(idx.Dir(), kind, r, opts)
		if err != nil {
			return Result{}, err
		}
		logx.Debugf("%s：json=%v 帖子=%d 跳过=%d", kind.FileName(), fr.JSON, len(fr.Posts), len(fr.Errors))
		for _, p := range fr.Posts {
			seen[p.ID] = struct{}{}
		}
		out.Posts = append(out.Posts, fr.Posts...)
		out.Errors = append(out.Errors, fr.Errors...)
	}
	if opts.Feed.Enabled {
		if err := loadFeed(idx.Dir(), opts.Feed.File, r, opts, seen, &out); err != nil {
			return Result{}, err
		}
	}
	model.SortByID(out.Posts)
	logx.Debugf("已读取博客 %s：文件=%d 帖子=%d 跳过=%d", out.Dir, idx.Len(), len(out.Posts), len(out.Errors))
	return out, nil
}

// loadFeed 合并订阅快照中的帖子；元数据文件中已有的 id 优先。
func loadFeed(dir, file string, r *media.Resolver, opts Options, seen map[uint64]struct{}, out *Result) error {
	if file == "" {
		file = feeds.DefaultFile
	}
	path := filepath.Join(dir, file)
	posts, bad, err := feeds.ParseFile(path, textfmt.NewBuilder(r, opts.Text))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, ie := range bad {
		re := &RecordError{Source: file, Index: ie.Index, Err: ie.Err}
		logx.Warnf("跳过订阅条目：%v", re)
		out.Errors = append(out.Errors, re)
	}
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out.Posts = append(out.Posts, p)
	}
	return nil
}

// ListBlogs 列出 root 下包含元数据文件的子目录名（排除 Index），按名称排序。
func ListBlogs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}
	out := []string{}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == IndexDir {
			continue
		}
		if HasMetadata(filepath.Join(root, e.Name())) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// HasMetadata 报告目录中是否至少有一个元数据文件。
func HasMetadata(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && IsMetadataFile(e.Name()) {
			return true
		}
	}
	return false
}

// IsMetadataFile 报告文件名是否为元数据文件。
func IsMetadataFile(name string) bool {
	for _, k := range AllKinds() {
		if k.FileName() == name {
			return true
		}
	}
	return false
}
