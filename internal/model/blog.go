package model

import "time"

// Blog 为一个博客目录的读取结果。
type Blog struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Posts   []Post `json:"posts"`
	Skipped int    `json:"skipped"`
}

// Stats 汇总统计。
type Stats struct {
	BlogsTotal   int            `json:"blogs_total"`
	PostsTotal   int            `json:"posts_total"`
	SkippedTotal int            `json:"skipped_total"`
	PostsByType  map[string]int `json:"posts_by_type"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Export 为导出文件结构：博客名 -> 帖子列表。
type Export struct {
	Stats Stats             `json:"stats"`
	Blogs map[string][]Post `json:"blogs"`
}

// StatsOf 由内存中的博客计算统计。
func StatsOf(blogs []Blog) Stats {
	st := Stats{BlogsTotal: len(blogs), PostsByType: map[string]int{}, UpdatedAt: time.Now()}
	for _, b := range blogs {
		st.SkippedTotal += b.Skipped
		for _, p := range b.Posts {
			st.PostsByType[p.Type()]++
			st.PostsTotal++
		}
	}
	return st
}
