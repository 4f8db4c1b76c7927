// 包 server 提供浏览归档的 HTTP 接口与内嵌的查看页面：
// - GET /blogs         博客名列表
// - GET /blogs/{name}  某个博客的全部帖子（按 id 排序）
// - 其余路径            内嵌的查看页面静态文件
// 每个请求都重新快照目录，不做跨请求缓存。
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tumbl-viewer/internal/blog"
	"tumbl-viewer/internal/logx"
)

//go:embed viewer
var viewerFS embed.FS

// Server 持有归档根目录与解析选项。
type Server struct {
	root string
	opts blog.Options
}

// New 创建 Server。
func New(root string, opts blog.Options) *Server {
	return &Server{root: root, opts: opts}
}

// Handler 返回注册好路由的 http.Handler。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /blogs", s.handleBlogs)
	mux.HandleFunc("GET /blogs/{name}", s.handleBlog)
	static, _ := fs.Sub(viewerFS, "viewer")
	mux.Handle("GET /", http.FileServerFS(static))
	return withCORS(withLog(mux))
}

// ListenAndServe 在 127.0.0.1:port 上监听，ctx 取消后优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logx.Infof("查看器已启动：http://%s/ 归档目录=%s", srv.Addr, s.root)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logx.Infof("查看器已关闭")
	return nil
}

func (s *Server) handleBlogs(w http.ResponseWriter, _ *http.Request) {
	names, err := blog.ListBlogs(s.root)
	if err != nil {
		logx.Errorf("读取博客列表失败：%v", err)
		http.Error(w, "Unable to read blog directory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, names)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !validName(name) {
		http.Error(w, fmt.Sprintf("invalid blog name %q", name), http.StatusBadRequest)
		return
	}
	res, err := blog.Load(filepath.Join(s.root, name), s.opts)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		http.Error(w, "Blog directory not found", http.StatusNotFound)
		return
	case err != nil:
		logx.Warnf("读取博客 %s 失败：%v", name, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, res.Posts)
}

// validName 拒绝会跳出归档根目录的名称。
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logx.Warnf("写出响应失败：%v", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func withLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logx.Debugf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
