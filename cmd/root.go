// 包 cmd 为命令行入口（cobra）：serve / blogs / dump / export / config init。
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tumbl-viewer/internal/config"
	"tumbl-viewer/internal/logx"
)

// app 为各子命令共享的全局参数与已加载配置。
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

// Execute 由 main.main 调用。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误：", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tumbl-viewer",
		Short:         "Browse blog archives exported by a Tumblr downloader",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "settings.yaml", "path to settings.yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error|none (overrides config)")

	root.AddCommand(
		newServeCmd(a),
		newBlogsCmd(a),
		newDumpCmd(a),
		newExportCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load 读取配置并初始化日志；命令行参数优先于配置文件。
func (a *app) load(cmd *cobra.Command) error {
	c, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		if !logx.ValidLevel(a.logLevel) {
			return fmt.Errorf("unsupported log level: %s", a.logLevel)
		}
		c.LogLevel = a.logLevel
	}
	a.cfg = c
	logx.InitWriter(cmd.ErrOrStderr(), c.LogLevel, c.LogFormat, c.LogLocale, c.LogColor)
	return nil
}
