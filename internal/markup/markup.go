// 包 markup 提供 HTML 片段处理（基于 goquery 与 x/net/html）：
// - 片段按 <body> 上下文解析，不会被包上 html/head/body
// - 改写 <img src>（词法级，其余字节不变）、整体移除指定元素、读取第一个匹配元素的属性
package markup

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment 将片段解析到一个临时容器节点下，返回以容器为根的文档。
func parseFragment(fragment string) (*goquery.Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// render 输出容器的内部 HTML。
func render(doc *goquery.Document) (string, error) {
	out, err := doc.Selection.Html()
	if err != nil {
		return "", fmt.Errorf("render html fragment: %w", err)
	}
	return out, nil
}

// RewriteImgSrc 对每个带 src 的 <img> 用 fn(原 src) 的结果替换 src。
// 按词法单元流式处理，<img> 以外的字节原样输出。
func RewriteImgSrc(fragment string, fn func(src string) string) (string, error) {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return fragment, nil
	}
	var out strings.Builder
	out.Grow(len(fragment))
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenize html fragment: %w", err)
			}
			return out.String(), nil
		}
		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}
		tok := z.Token()
		if tok.DataAtom != atom.Img {
			out.Write(raw)
			continue
		}
		out.WriteString(rewriteImgTag(string(raw), tok, fn))
	}
}

// rewriteImgTag 只重建带 src 的 <img> 标签；无 src 时返回原始字节。
func rewriteImgTag(raw string, tok html.Token, fn func(src string) string) string {
	found := false
	for i, a := range tok.Attr {
		if a.Namespace == "" && a.Key == "src" {
			tok.Attr[i].Val = fn(a.Val)
			found = true
			break
		}
	}
	if !found {
		return raw
	}
	return tok.String()
}

// StripElements 移除所有指定标签的元素（连同其内容），不论嵌套深度。
func StripElements(fragment string, tags ...string) (string, error) {
	if len(tags) == 0 {
		return fragment, nil
	}
	doc, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	doc.Find(strings.Join(tags, ", ")).Remove()
	return render(doc)
}

// FirstAttr 返回第一个匹配 selector 的元素的 attr 属性。
// found 表示是否存在匹配元素，ok 表示该元素是否带有此属性。
func FirstAttr(fragment, selector, attr string) (val string, found, ok bool, err error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return "", false, false, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false, false, nil
	}
	val, ok = sel.Attr(attr)
	return val, true, ok, nil
}
