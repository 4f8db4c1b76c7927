// 包 textfmt 解析导出工具的旧版行式文本格式：
// - RecordScanner：按 "Post id: N" 行切分记录
// - ReadFields：按字段表（标签 + 续行策略）抽取字段
// - Builder：由字段构建 model.Post，媒体引用交给 media.Resolver
package textfmt

import (
	"regexp"
	"strings"
)

// boundary 匹配记录起始行："Post id: " 加一串十进制数字，别无其他。
var boundary = regexp.MustCompile(`^Post id: \d+$`)

// RecordScanner 逐条产出记录文本，用法同 bufio.Scanner；不可重置。
type RecordScanner struct {
	lines   []string
	pos     int
	current string
}

// NewRecordScanner 基于整个元数据文件内容创建扫描器。
func NewRecordScanner(text string) *RecordScanner {
	return &RecordScanner{lines: splitLines(text)}
}

// Scan 前进到下一条记录，没有更多记录时返回 false。
func (s *RecordScanner) Scan() bool {
	if s.pos >= len(s.lines) {
		s.current = ""
		return false
	}
	start := s.pos
	s.pos++
	for s.pos < len(s.lines) && !boundary.MatchString(s.lines[s.pos]) {
		s.pos++
	}
	s.current = strings.Join(s.lines[start:s.pos], "\n")
	return true
}

// Record 返回最近一次 Scan 得到的记录。
func (s *RecordScanner) Record() string { return s.current }

// SplitRecords 一次性切分全部记录。没有任何边界行时整个输入为一条记录。
func SplitRecords(text string) []string {
	var out []string
	sc := NewRecordScanner(text)
	for sc.Scan() {
		out = append(out, sc.Record())
	}
	return out
}

// splitLines 按 '\n' 分行并去掉行尾 '\r'；结尾换行不产生空行。
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
