package model

import "encoding/json"

// MediaRef 是一次媒体解析的结果：Resolved(本地 file:/// 引用) 或 Unresolved。
// 内部逻辑通过 IsResolved 判断，只有在序列化边界才落成 UnknownFile 字符串。
type MediaRef struct {
	url      string
	resolved bool
}

// Resolved 构造已解析引用。
func Resolved(url string) MediaRef { return MediaRef{url: url, resolved: true} }

// Unresolved 构造未解析引用。
func Unresolved() MediaRef { return MediaRef{} }

// IsResolved 报告引用是否指向磁盘上的文件。
func (m MediaRef) IsResolved() bool { return m.resolved }

// String 返回本地引用；未解析时返回 UnknownFile。
func (m MediaRef) String() string {
	if !m.resolved {
		return UnknownFile
	}
	return m.url
}

func (m MediaRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MediaRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == UnknownFile || s == "" {
		*m = Unresolved()
		return nil
	}
	*m = Resolved(s)
	return nil
}

