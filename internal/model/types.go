// 包 model 定义归一化后的帖子模型（Post 与四种类型载荷），
// 以及媒体引用 MediaRef（已解析 / 未解析哨兵）。
package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnknownFile 为未能在磁盘上找到媒体文件时对外输出的固定哨兵字符串。
const UnknownFile = "unknown"

// 类型判别字段取值。
const (
	TypeImage  = "Image"
	TypeVideo  = "Video"
	TypeText   = "Text"
	TypeAnswer = "Answer"
)

// Post 为一条归一化帖子：id 为身份键（排序/去重），date 原样保留。
type Post struct {
	ID   uint64
	Date *string
	Tags []string
	Kind Kind
}

// Kind 为封闭的类型载荷接口，只有本包的四个结构体实现它。
type Kind interface {
	Type() string
	isKind()
}

// Image 图片帖：PhotoURLs 与声明的引用数量一致，找不到的为 Unresolved。
type Image struct {
	PhotoURLs []MediaRef
	Caption   *string
}

// Video 视频帖：URL 为 nil 表示提取失败。
type Video struct {
	URL     *MediaRef
	Caption *string
}

// Text 文本帖：Body 为 HTML 片段，MediaURLs 按首次出现去重。
type Text struct {
	Title     *string
	Body      *string
	MediaURLs []MediaRef
}

// Answer 问答帖。
type Answer struct {
	Body *string
}

func (Image) Type() string  { return TypeImage }
func (Video) Type() string  { return TypeVideo }
func (Text) Type() string   { return TypeText }
func (Answer) Type() string { return TypeAnswer }

func (Image) isKind()  {}
func (Video) isKind()  {}
func (Text) isKind()   {}
func (Answer) isKind() {}

// RenderAnswer 将问题与回答拼接为一个 HTML 片段（固定规则）。
func RenderAnswer(question, answer string) string {
	return "<em>" + question + "</em><br>" + answer
}

// StringPtr 返回 s 的指针，便于构造可选字段。
func StringPtr(s string) *string { return &s }

// SortByID 按 id 升序稳定排序。
func SortByID(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
}

// Type 返回帖子类型判别值；Kind 为空时返回空串。
func (p Post) Type() string {
	if p.Kind == nil {
		return ""
	}
	return p.Kind.Type()
}

// wirePost 为序列化形态：公共字段与载荷字段展平到同一层。
type wirePost struct {
	ID   uint64   `json:"id"`
	Date *string  `json:"date"`
	Tags []string `json:"tags"`
	Type string   `json:"type"`

	PhotoURLs *[]MediaRef `json:"photo_urls,omitempty"`
	URL       **MediaRef  `json:"url,omitempty"`
	Caption   **string    `json:"caption,omitempty"`
	Title     **string    `json:"title,omitempty"`
	Body      **string    `json:"body,omitempty"`
	MediaURLs *[]MediaRef `json:"media_urls,omitempty"`
}

// MarshalJSON 输出 {"id","date","tags","type", ...载荷字段}，可选值缺失时为 null。
func (p Post) MarshalJSON() ([]byte, error) {
	w := wirePost{ID: p.ID, Date: p.Date, Tags: nonNilTags(p.Tags)}
	switch k := p.Kind.(type) {
	case Image:
		urls := nonNilRefs(k.PhotoURLs)
		w.Type, w.PhotoURLs, w.Caption = TypeImage, &urls, &k.Caption
	case Video:
		w.Type, w.URL, w.Caption = TypeVideo, &k.URL, &k.Caption
	case Text:
		urls := nonNilRefs(k.MediaURLs)
		w.Type, w.Title, w.Body, w.MediaURLs = TypeText, &k.Title, &k.Body, &urls
	case Answer:
		w.Type, w.Body = TypeAnswer, &k.Body
	default:
		return nil, fmt.Errorf("post %d: unknown kind %T", p.ID, p.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON 按 "type" 判别字段还原载荷。
func (p *Post) UnmarshalJSON(b []byte) error {
	var w struct {
		ID        uint64     `json:"id"`
		Date      *string    `json:"date"`
		Tags      []string   `json:"tags"`
		Type      string     `json:"type"`
		PhotoURLs []MediaRef `json:"photo_urls"`
		URL       *MediaRef  `json:"url"`
		Caption   *string    `json:"caption"`
		Title     *string    `json:"title"`
		Body      *string    `json:"body"`
		MediaURLs []MediaRef `json:"media_urls"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Post{ID: w.ID, Date: w.Date, Tags: nonNilTags(w.Tags)}
	switch w.Type {
	case TypeImage:
		out.Kind = Image{PhotoURLs: nonNilRefs(w.PhotoURLs), Caption: w.Caption}
	case TypeVideo:
		out.Kind = Video{URL: w.URL, Caption: w.Caption}
	case TypeText:
		out.Kind = Text{Title: w.Title, Body: w.Body, MediaURLs: nonNilRefs(w.MediaURLs)}
	case TypeAnswer:
		out.Kind = Answer{Body: w.Body}
	default:
		return fmt.Errorf("post %d: unknown type %q", w.ID, w.Type)
	}
	*p = out
	return nil
}

func nonNilTags(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilRefs(in []MediaRef) []MediaRef {
	if in == nil {
		return []MediaRef{}
	}
	return in
}
