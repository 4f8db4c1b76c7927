package textfmt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/markup"
	"tumbl-viewer/internal/media"
	"tumbl-viewer/internal/model"
)

var (
	// ErrMissingID 记录中没有 "Post id" 字段。
	ErrMissingID = errors.New("missing post id")
	// ErrInvalidID "Post id" 不是无符号整数。
	ErrInvalidID = errors.New("invalid post id")
)

// videoToken 匹配视频地址中最后一段路径的 tumblr_ 文件名。
var videoToken = regexp.MustCompile(`/(tumblr_[a-zA-Z0-9]+)`)

// Options 为格式版本相关的截断规则。
type Options struct {
	ImageTrim media.TrimMode
	VideoTrim media.TrimMode
}

// DefaultOptions：图片按尺寸后缀截断，视频按扩展名截断。
func DefaultOptions() Options {
	return Options{ImageTrim: media.TrimSizeSuffix, VideoTrim: media.TrimExtension}
}

// Builder 由字段映射构建帖子。
type Builder struct {
	resolver *media.Resolver
	opts     Options
}

// NewBuilder 创建 Builder。
func NewBuilder(r *media.Resolver, opts Options) *Builder {
	return &Builder{resolver: r, opts: opts}
}

// Spec 返回帖子类型对应的字段表。
func Spec(kind string) (FieldSpec, error) {
	switch kind {
	case model.TypeImage:
		return ImageFields, nil
	case model.TypeVideo:
		return VideoFields, nil
	case model.TypeText:
		return TextFields, nil
	case model.TypeAnswer:
		return AnswerFields, nil
	}
	return nil, fmt.Errorf("unknown post type %q", kind)
}

// ParsePost 抽取字段并构建帖子。
func (b *Builder) ParsePost(kind, record string) (model.Post, error) {
	spec, err := Spec(kind)
	if err != nil {
		return model.Post{}, err
	}
	return b.Build(kind, ReadFields(record, spec))
}

// Build 构建帖子；只有 id 缺失或非法是硬错误，其余问题降级并记录日志。
func (b *Builder) Build(kind string, f Fields) (model.Post, error) {
	raw, ok := f.Get(LabelPostID)
	if !ok {
		return model.Post{}, ErrMissingID
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return model.Post{}, fmt.Errorf("%w %q: %v", ErrInvalidID, raw, err)
	}
	p := model.Post{ID: id, Tags: SplitTags(f[LabelTags])}
	if d, ok := f.Get(LabelDate); ok {
		p.Date = model.StringPtr(d)
	}
	switch kind {
	case model.TypeImage:
		p.Kind = b.image(id, f)
	case model.TypeVideo:
		p.Kind = b.video(id, f)
	case model.TypeText:
		p.Kind = b.text(id, f)
	case model.TypeAnswer:
		p.Kind = model.Answer{Body: optional(f, LabelBody)}
	default:
		return model.Post{}, fmt.Errorf("unknown post type %q", kind)
	}
	return p, nil
}

// SplitTags 按 ", " 切分标签并丢弃空标签，保持顺序。
func SplitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ", ") {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (b *Builder) image(id uint64, f Fields) model.Image {
	urls := strings.Fields(f[LabelPhotoSetURLs])
	if len(urls) == 0 {
		if u, ok := f.Get(LabelPhotoURL); ok {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		logx.Warnf("图片帖 %d 没有任何图片地址", id)
	}
	refs := make([]model.MediaRef, 0, len(urls))
	for _, u := range urls {
		refs = append(refs, b.resolver.Resolve(u, b.opts.ImageTrim))
	}
	return model.Image{PhotoURLs: refs, Caption: optional(f, LabelPhotoCaption)}
}

func (b *Builder) video(id uint64, f Fields) model.Video {
	v := model.Video{Caption: optional(f, LabelVideoCaption)}
	name, err := videoFileName(f)
	if err != nil {
		logx.Warnf("无法找到视频帖 %d 的视频地址：%v", id, err)
		return v
	}
	ref := b.resolver.Resolve(name, b.opts.VideoTrim)
	v.URL = &ref
	return v
}

// videoFileName 从播放器 HTML 中取第一个 <source src>，再提取 tumblr_ 文件名并补上 .mp4。
func videoFileName(f Fields) (string, error) {
	player, ok := f.Get(LabelVideoPlayer)
	if !ok {
		return "", errors.New("missing 'Video player' field")
	}
	src, found, hasSrc, err := markup.FirstAttr(player, "source", "src")
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.New("missing 'source' tag")
	}
	if !hasSrc {
		return "", errors.New("source element missing 'src' attribute")
	}
	// 优先取最后一段路径；形如 .../tumblr_xxx/480 的地址退回到第一个 tumblr_ 段
	if i := strings.LastIndexByte(src, '/'); i >= 0 {
		if m := videoToken.FindStringSubmatch(src[i:]); m != nil {
			return m[1] + ".mp4", nil
		}
	}
	m := videoToken.FindStringSubmatch(src)
	if m == nil {
		return "", fmt.Errorf("no supported video file name in %q", src)
	}
	return m[1] + ".mp4", nil
}

func (b *Builder) text(id uint64, f Fields) model.Text {
	t := model.Text{Title: optional(f, LabelTitle), MediaURLs: []model.MediaRef{}}
	body, ok := f.Get(LabelBody)
	if !ok {
		return t
	}
	out := b.RewriteImages(id, body)
	t.Body = &out
	return t
}

// RewriteImages 将正文中每个 <img src> 替换为本地引用，其余标记原样保留；解析失败时返回原文。
func (b *Builder) RewriteImages(id uint64, body string) string {
	out, err := markup.RewriteImgSrc(body, func(src string) string {
		return b.resolver.Resolve(src, b.opts.ImageTrim).String()
	})
	if err != nil {
		logx.Warnf("文本帖 %d 正文解析失败，保留原文：%v", id, err)
		return body
	}
	return out
}

func optional(f Fields, label string) *string {
	if v, ok := f.Get(label); ok {
		return &v
	}
	return nil
}
