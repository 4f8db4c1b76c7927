package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tumbl-viewer/internal/aggregate"
	"tumbl-viewer/internal/export"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/store"
	"tumbl-viewer/internal/watch"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath   string
		jsonPath string
		noDB     bool
		reset    bool
		watching bool
	)
	c := &cobra.Command{
		Use:   "export",
		Short: "Index every blog into SQLite and/or write a JSON export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cmd.Flags().Changed("db") {
				a.cfg.Database.DSN = dbPath
			}
			if noDB && watching {
				return errors.New("--watch needs the database")
			}

			// 无数据库模式：只收集内存数据并导出 JSON
			if noDB {
				if jsonPath == "" {
					return errors.New("--no-db requires --json")
				}
				run := aggregate.New(a.cfg, nil)
				if _, err := run.Run(ctx); err != nil {
					return err
				}
				if err := export.ToJSONBlogs(jsonPath, run.BufferData()); err != nil {
					return err
				}
				logx.Infof("已导出 %s", jsonPath)
				return nil
			}

			st, err := store.OpenSQLite(a.cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer st.Close()
			if reset {
				if err := st.Reset(ctx); err != nil {
					return fmt.Errorf("reset: %w", err)
				}
				logx.Infof("已清理数据库表（blogs/posts）")
			}
			run := aggregate.New(a.cfg, st)
			if _, err := run.Run(ctx); err != nil {
				return err
			}
			if jsonPath != "" {
				if err := export.FromStore(ctx, st, jsonPath); err != nil {
					return err
				}
				logx.Infof("已导出 %s", jsonPath)
			}
			if !watching {
				return nil
			}
			w, err := watch.New(a.cfg.Path, run)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(ctx)
		},
	}
	c.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DATABASE.dsn)")
	c.Flags().StringVar(&jsonPath, "json", "", "also write a JSON export to this path")
	c.Flags().BoolVar(&noDB, "no-db", false, "skip the database and export straight from memory")
	c.Flags().BoolVar(&reset, "reset", false, "clear indexed tables before ingesting")
	c.Flags().BoolVar(&watching, "watch", false, "keep running and re-index blogs when files change")
	return c
}
