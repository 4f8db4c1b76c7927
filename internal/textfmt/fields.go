package textfmt

import "strings"

// Continuation 为字段续行策略：给定下一行，判断它是否仍属于当前字段。
// 策略集合固定，用显式 switch 实现。
type Continuation int

const (
	// ContinueNever 单行字段。
	ContinueNever Continuation = iota
	// ContinueWhileURL 下一行是远程 URL 时继续（多 URL 字段）。
	ContinueWhileURL
	// ContinueUntilTags 直到遇到 "Tags: " 行为止（正文、说明等可含空行与标记）。
	ContinueUntilTags
)

// Next 报告 next 是否续接到当前字段。
func (c Continuation) Next(next string) bool {
	switch c {
	case ContinueWhileURL:
		return strings.HasPrefix(next, "https://") || strings.HasPrefix(next, "http://")
	case ContinueUntilTags:
		return !strings.HasPrefix(next, LabelTags+": ")
	default:
		return false
	}
}

// 字段标签（区分大小写，后接 ": "）；LabelBody 为空标签，表示记录余下部分。
const (
	LabelPostID       = "Post id"
	LabelDate         = "Date"
	LabelTags         = "Tags"
	LabelReblogName   = "Reblog name"
	LabelPhotoURL     = "Photo url"
	LabelPhotoSetURLs = "Photo set urls"
	LabelPhotoCaption = "Photo caption"
	LabelVideoCaption = "Video caption"
	LabelVideoPlayer  = "Video player"
	LabelTitle        = "Title"
	LabelBody         = ""
)

// Field 描述一个字段：标签与续行策略。
type Field struct {
	Label    string
	Continue Continuation
}

// FieldSpec 为有序字段表；顺序即解析顺序，先声明的字段先消费行。
type FieldSpec []Field

var (
	fieldPostID       = Field{LabelPostID, ContinueNever}
	fieldDate         = Field{LabelDate, ContinueNever}
	fieldTags         = Field{LabelTags, ContinueNever}
	fieldReblogName   = Field{LabelReblogName, ContinueNever}
	fieldBody         = Field{LabelBody, ContinueUntilTags}
	fieldPhotoURL     = Field{LabelPhotoURL, ContinueNever}
	fieldPhotoSetURLs = Field{LabelPhotoSetURLs, ContinueWhileURL}
	fieldPhotoCaption = Field{LabelPhotoCaption, ContinueUntilTags}
	fieldVideoCaption = Field{LabelVideoCaption, ContinueNever}
	fieldVideoPlayer  = Field{LabelVideoPlayer, ContinueUntilTags}
	fieldTitle        = Field{LabelTitle, ContinueNever}
)

// 各类型的固定字段表。
var (
	ImageFields  = FieldSpec{fieldPostID, fieldDate, fieldPhotoURL, fieldPhotoSetURLs, fieldPhotoCaption, fieldTags}
	VideoFields  = FieldSpec{fieldPostID, fieldDate, fieldVideoCaption, fieldVideoPlayer, fieldTags}
	TextFields   = FieldSpec{fieldPostID, fieldDate, fieldTitle, fieldBody, fieldTags}
	AnswerFields = FieldSpec{fieldPostID, fieldDate, fieldReblogName, fieldBody, fieldTags}
)

// Fields 为 标签→值 映射；输入中缺失的标签不会出现在映射里。
type Fields map[string]string

// Get 返回字段值及是否存在。
func (f Fields) Get(label string) (string, bool) {
	v, ok := f[label]
	return v, ok
}

// ReadFields 按字段表从一条记录中抽取字段。
// 每个字段从当前游标向后寻找 "<标签>: " 开头的行（空标签匹配任意行），
// 找到后按续行策略吞并后续行，并把游标移到已消费行之后；已消费的行不会被后续字段重访。
// 找不到的字段不出现在结果中，也不移动游标。
func ReadFields(record string, spec FieldSpec) Fields {
	lines := splitLines(record)
	out := Fields{}
	cursor := 0
	for _, f := range spec {
		prefix := ""
		if f.Label != "" {
			prefix = f.Label + ": "
		}
		for i := cursor; i < len(lines); i++ {
			if !strings.HasPrefix(lines[i], prefix) {
				continue
			}
			parts := []string{lines[i][len(prefix):]}
			j := i + 1
			for j < len(lines) && f.Continue.Next(lines[j]) {
				parts = append(parts, lines[j])
				j++
			}
			out[f.Label] = strings.Join(parts, "\n")
			cursor = j
			break
		}
	}
	return out
}
