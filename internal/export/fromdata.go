package export

import (
	"tumbl-viewer/internal/model"
)

// ToJSON 将单个博客的帖子写为 JSON 数组。
func ToJSON(path string, posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}
	return writeJSON(path, posts)
}

// ToJSONBlogs 直接将内存中的博客写成 博客名 -> 帖子 的映射，附带统计。
func ToJSONBlogs(path string, blogs []model.Blog) error {
	out := model.Export{Stats: model.StatsOf(blogs), Blogs: make(map[string][]model.Post, len(blogs))}
	for _, b := range blogs {
		posts := b.Posts
		if posts == nil {
			posts = []model.Post{}
		}
		out.Blogs[b.Name] = posts
	}
	return writeJSON(path, out)
}
