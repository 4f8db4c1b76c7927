// 包 jsonfmt 解析导出工具的 JSON 格式（帖子对象数组）：
// - 字段名在不同版本间不一致，按别名表精确匹配（区分大小写）
// - downloaded-media-files 是记录自身的媒体清单，逐个交给 media.Resolver 解析
// - 文本帖正文中的 <img>/<figure>/<video> 指向远程地址，一律移除
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/markup"
	"tumbl-viewer/internal/media"
	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/textfmt"
)

// 别名表：同一语义字段的多个键名，先出现者优先。
var (
	keyID       = []string{"id"}
	keyDate     = []string{"date"}
	keyTags     = []string{"tags"}
	keyMedia    = []string{"downloaded-media-files", "downloaded_media_files"}
	keyCaption  = []string{"caption", "photo-caption"}
	keyBody     = []string{"regular-body", "body"}
	keyTitle    = []string{"regular-title", "title"}
	keyQuestion = []string{"question"}
	keyAnswer   = []string{"answer"}
)

// strippedElements 为 JSON 文本帖正文中需要整体移除的元素。
var strippedElements = []string{"img", "figure", "video"}

var (
	// ErrMissingID 对象中没有 id。
	ErrMissingID = textfmt.ErrMissingID
	// ErrInvalidID id 不是无符号整数。
	ErrInvalidID = textfmt.ErrInvalidID
)

// IsJSON 报告元数据内容是否为 JSON 格式（以 '[' 开头）。
func IsJSON(content []byte) bool {
	return bytes.HasPrefix(content, []byte("["))
}

// ParseArray 将文件内容解码为对象列表；失败时整个文件不可用。
func ParseArray(data []byte) ([]json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}
	return arr, nil
}

// Options 为格式版本相关的截断规则。
type Options struct {
	MediaTrim media.TrimMode
}

// DefaultOptions：媒体清单文件名按扩展名截断。
func DefaultOptions() Options {
	return Options{MediaTrim: media.TrimExtension}
}

// Builder 由 JSON 对象构建帖子。
type Builder struct {
	resolver *media.Resolver
	opts     Options
}

// NewBuilder 创建 Builder。
func NewBuilder(r *media.Resolver, opts Options) *Builder {
	return &Builder{resolver: r, opts: opts}
}

// object 为按键名索引的原始字段。
type object map[string]json.RawMessage

// lookup 按别名顺序返回第一个存在且非 null 的字段。
func (o object) lookup(keys []string) (json.RawMessage, string, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, k, true
		}
	}
	return nil, "", false
}

func (o object) str(keys []string) (*string, error) {
	raw, k, ok := o.lookup(keys)
	if !ok {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("field %q: %w", k, err)
	}
	return &s, nil
}

func (o object) strOrEmpty(keys []string) (string, error) {
	s, err := o.str(keys)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// Build 构建帖子：结构性错误（类型不符、id 缺失/非法）为硬错误，其余降级并记录日志。
func (b *Builder) Build(kind string, raw json.RawMessage) (model.Post, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return model.Post{}, fmt.Errorf("decode post object: %w", err)
	}
	id, err := parseID(o)
	if err != nil {
		return model.Post{}, err
	}
	p := model.Post{ID: id}
	if p.Date, err = o.str(keyDate); err != nil {
		return model.Post{}, fmt.Errorf("post %d: %w", id, err)
	}
	if p.Tags, err = parseTags(o); err != nil {
		return model.Post{}, fmt.Errorf("post %d: %w", id, err)
	}
	files, err := mediaFiles(o)
	if err != nil {
		return model.Post{}, fmt.Errorf("post %d: %w", id, err)
	}
	switch kind {
	case model.TypeVideo:
		p.Kind, err = b.video(id, o, files)
	case model.TypeImage:
		p.Kind, err = b.image(id, o, files)
	case model.TypeText:
		p.Kind, err = b.text(id, o, files)
	case model.TypeAnswer:
		p.Kind, err = answer(o)
	default:
		return model.Post{}, fmt.Errorf("unknown post type %q", kind)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("post %d: %w", id, err)
	}
	return p, nil
}

// parseID 接受字符串或数字形式的 id。
func parseID(o object) (uint64, error) {
	raw, _, ok := o.lookup(keyID)
	if !ok {
		return 0, ErrMissingID
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, fmt.Errorf("%w %s", ErrInvalidID, raw)
		}
		s = n.String()
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidID, s, err)
	}
	return id, nil
}

// parseTags 接受字符串数组或以 ", " 连接的字符串，空标签丢弃。
func parseTags(o object) ([]string, error) {
	raw, k, ok := o.lookup(keyTags)
	if !ok {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		return textfmt.SplitTags(s), nil
	}
	out := make([]string, 0, len(list))
	for _, t := range list {
		if t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func mediaFiles(o object) ([]string, error) {
	raw, k, ok := o.lookup(keyMedia)
	if !ok {
		return nil, nil
	}
	var files []string
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("field %q: %w", k, err)
	}
	return files, nil
}

func (b *Builder) resolveAll(files []string) []model.MediaRef {
	refs := make([]model.MediaRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, b.resolver.Resolve(f, b.opts.MediaTrim))
	}
	return refs
}

func (b *Builder) video(id uint64, o object, files []string) (model.Kind, error) {
	caption, err := o.str(keyCaption)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 {
		logx.Warnf("视频帖 %d 的媒体文件数量异常：%d", id, len(files))
	}
	v := model.Video{Caption: caption}
	if len(files) > 0 {
		ref := b.resolver.Resolve(files[0], b.opts.MediaTrim)
		v.URL = &ref
	}
	return v, nil
}

func (b *Builder) image(id uint64, o object, files []string) (model.Kind, error) {
	caption, err := o.str(keyCaption)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logx.Warnf("图片帖 %d 缺少媒体文件清单", id)
	}
	return model.Image{PhotoURLs: b.resolveAll(files), Caption: caption}, nil
}

func (b *Builder) text(id uint64, o object, files []string) (model.Kind, error) {
	title, err := o.str(keyTitle)
	if err != nil {
		return nil, err
	}
	body, err := o.str(keyBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		stripped, err := markup.StripElements(*body, strippedElements...)
		if err != nil {
			logx.Warnf("文本帖 %d 正文解析失败，保留原文：%v", id, err)
		} else {
			body = &stripped
		}
	}
	return model.Text{Title: title, Body: body, MediaURLs: b.resolveAll(Unique(files))}, nil
}

func answer(o object) (model.Kind, error) {
	q, err := o.strOrEmpty(keyQuestion)
	if err != nil {
		return nil, err
	}
	a, err := o.strOrEmpty(keyAnswer)
	if err != nil {
		return nil, err
	}
	body := model.RenderAnswer(q, a)
	return model.Answer{Body: &body}, nil
}

// Unique 去重并保持首次出现的顺序。
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
