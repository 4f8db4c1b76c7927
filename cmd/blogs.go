package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tumbl-viewer/internal/blog"
	"tumbl-viewer/internal/export"
)

func newBlogsCmd(a *app) *cobra.Command {
	var path string
	c := &cobra.Command{
		Use:   "blogs",
		Short: "List blog directories under the archive root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := a.cfg.Path
			if cmd.Flags().Changed("path") {
				root = path
			}
			names, err := blog.ListBlogs(root)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	c.Flags().StringVar(&path, "path", ".", "archive root (overrides PATH)")
	return c
}

func newDumpCmd(a *app) *cobra.Command {
	var out string
	c := &cobra.Command{
		Use:   "dump <blog-dir>",
		Short: "Parse one blog directory and print its posts as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := blog.Load(args[0], a.cfg.BlogOptions())
			if err != nil {
				return err
			}
			if out != "" {
				return export.ToJSON(out, res.Posts)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res.Posts)
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "write posts to this JSON file instead of stdout")
	return c
}
