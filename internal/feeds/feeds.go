// 包 feeds 解析博客目录中保存的订阅快照（rss.xml / Atom）：
// - 使用 gofeed 解析，条目归一化为文本帖
// - 帖子 id 取自条目链接或 GUID 中的 /post/<数字>
// - 正文中的 <img src> 与旧版文本导出一样改写为本地文件
package feeds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/textfmt"
)

// DefaultFile 为订阅快照的默认文件名。
const DefaultFile = "rss.xml"

// ErrNoPostID 条目链接与 GUID 中都没有帖子 id。
var ErrNoPostID = errors.New("feed item has no post id")

var postIDPattern = regexp.MustCompile(`/post/(\d+)`)

// ItemError 描述单个条目的失败；条目被跳过，其余条目照常返回。
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string { return fmt.Sprintf("feed item %d: %v", e.Index, e.Err) }
func (e ItemError) Unwrap() error { return e.Err }

// ParseFile 读取并解析订阅快照文件。
func ParseFile(path string, b *textfmt.Builder) ([]model.Post, []ItemError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, b)
}

// Parse 解析订阅内容；格式错误为整体失败，单个条目缺少 id 只跳过该条目。
func Parse(r io.Reader, b *textfmt.Builder) ([]model.Post, []ItemError, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse feed: %w", err)
	}
	posts := make([]model.Post, 0, len(feed.Items))
	var bad []ItemError
	for i, it := range feed.Items {
		p, err := toPost(it, b)
		if err != nil {
			bad = append(bad, ItemError{Index: i, Err: err})
			continue
		}
		posts = append(posts, p)
	}
	return posts, bad, nil
}

// PostID 从条目链接或 GUID 中提取帖子 id。
func PostID(it *gofeed.Item) (uint64, error) {
	for _, s := range []string{it.Link, it.GUID} {
		m := postIDPattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w %q: %v", textfmt.ErrInvalidID, m[1], err)
		}
		return id, nil
	}
	return 0, ErrNoPostID
}

func toPost(it *gofeed.Item, b *textfmt.Builder) (model.Post, error) {
	id, err := PostID(it)
	if err != nil {
		return model.Post{}, err
	}
	p := model.Post{ID: id, Tags: make([]string, 0, len(it.Categories))}
	if it.Published != "" {
		p.Date = model.StringPtr(it.Published)
	}
	for _, c := range it.Categories {
		if c = strings.TrimSpace(c); c != "" {
			p.Tags = append(p.Tags, c)
		}
	}
	t := model.Text{MediaURLs: []model.MediaRef{}}
	if it.Title != "" {
		t.Title = model.StringPtr(it.Title)
	}
	body := it.Description
	if body == "" {
		body = it.Content
	}
	if body != "" {
		t.Body = model.StringPtr(b.RewriteImages(id, body))
	}
	p.Kind = t
	return p, nil
}
