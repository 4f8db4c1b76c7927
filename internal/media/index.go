// 包 media 负责把元数据里的媒体引用（文件名或远程 URL）解析为博客目录中实际存在的文件：
// - Index：一次性获取的目录文件名快照，只读
// - Resolver：按前缀匹配查找文件，容忍导出工具的命名偏差（截断扩展名、尺寸后缀不同等）
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Index 为某个博客目录的文件名快照，创建后不再修改，可并发读取。
// 名称保持文件系统枚举顺序，不做排序：多个文件共享前缀时取第一个，
// 这种与顺序相关的结果是可接受的既有行为。
type Index struct {
	dir   string
	names []string
}

// Snapshot 读取 dir 的目录项名称（不排序）。dir 会被转换为绝对路径。
func Snapshot(dir string) (*Index, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", dir, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open dir %s: %w", abs, err)
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", abs, err)
	}
	return &Index{dir: abs, names: names}, nil
}

// NewIndex 用调用方已有的目录列表构造快照（名称按给定顺序）。
func NewIndex(dir string, names []string) *Index {
	cp := make([]string, len(names))
	copy(cp, names)
	return &Index{dir: dir, names: cp}
}

// Dir 返回快照对应的目录（绝对路径）。
func (ix *Index) Dir() string { return ix.dir }

// Len 返回文件数量。
func (ix *Index) Len() int { return len(ix.names) }

// Contains 报告是否存在名称完全相同的文件。
func (ix *Index) Contains(name string) bool {
	for _, n := range ix.names {
		if n == name {
			return true
		}
	}
	return false
}

// FindPrefix 按枚举顺序返回第一个以 prefix 开头的文件名，线性扫描 O(n)。
func (ix *Index) FindPrefix(prefix string) (string, bool) {
	for _, n := range ix.names {
		if strings.HasPrefix(n, prefix) {
			return n, true
		}
	}
	return "", false
}
