package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/model"
)

// TrimMode 决定搜索前缀如何由文件名派生。不同版本的导出格式使用不同的截断规则，
// 由调用方按格式配置，不做统一。
type TrimMode int

const (
	// TrimNone 使用完整文件名作为前缀。
	TrimNone TrimMode = iota
	// TrimExtension 截到最后一个 '.'（含），容忍扩展名被改写。
	TrimExtension
	// TrimSizeSuffix 截到最后一个 '_'（含），容忍 _540/_1280 等尺寸后缀不同。
	TrimSizeSuffix
)

// ParseTrimMode 解析配置中的截断模式：none|extension|size_suffix。
func ParseTrimMode(s string) (TrimMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TrimNone, nil
	case "extension", "ext":
		return TrimExtension, nil
	case "size_suffix", "size-suffix", "suffix":
		return TrimSizeSuffix, nil
	}
	return TrimNone, fmt.Errorf("unknown trim mode %q", s)
}

func (m TrimMode) String() string {
	switch m {
	case TrimExtension:
		return "extension"
	case TrimSizeSuffix:
		return "size_suffix"
	}
	return "none"
}

// Resolver 在目录快照中解析媒体引用。解析永不返回错误：找不到时退化为 Unresolved 并记录警告。
type Resolver struct {
	idx *Index
}

// NewResolver 基于目录快照创建解析器。
func NewResolver(idx *Index) *Resolver { return &Resolver{idx: idx} }

// Resolve 将文件名或 URL 解析为本地 file:/// 引用。
func (r *Resolver) Resolve(nominal string, mode TrimMode) model.MediaRef {
	filename := FileName(nominal)
	prefix := SearchPrefix(filename, mode)
	if prefix == "" {
		logx.Warnf("无法解析媒体引用：%q 为空文件名", nominal)
		return model.Unresolved()
	}
	matched, ok := r.idx.FindPrefix(prefix)
	if !ok {
		logx.Warnf("找不到以 %s 开头的文件（引用 %s）", prefix, nominal)
		return model.Unresolved()
	}
	if matched != filename {
		logx.Infof("媒体文件替换：%s -> %s", filename, matched)
	}
	return model.Resolved(FileURL(r.idx.Dir(), matched))
}

// FileName 取 URL 最后一个 '/' 之后的部分；纯文件名原样返回。
func FileName(nominal string) string {
	nominal = strings.TrimSpace(nominal)
	if i := strings.LastIndexByte(nominal, '/'); i >= 0 {
		return nominal[i+1:]
	}
	return nominal
}

// SearchPrefix 按截断模式由文件名派生搜索前缀；找不到分隔符时使用完整文件名。
func SearchPrefix(filename string, mode TrimMode) string {
	var sep byte
	switch mode {
	case TrimExtension:
		sep = '.'
	case TrimSizeSuffix:
		sep = '_'
	default:
		return filename
	}
	if i := strings.LastIndexByte(filename, sep); i >= 0 {
		return filename[:i+1]
	}
	return filename
}

// FileURL 拼接目录与文件名并格式化为本地文件 URL：
// 只使用正斜杠，去掉 Windows 扩展长度/UNC 前缀，加 "file:///" 前缀。
func FileURL(dir, name string) string {
	p := filepath.Join(dir, name)
	p = strings.ReplaceAll(p, `\\?\UNC\`, `//`)
	p = strings.ReplaceAll(p, `\\?\`, "")
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		p = p[1:]
	}
	return "file:///" + p
}
