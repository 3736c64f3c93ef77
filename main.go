package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pinyin-translate",
	Short: "普通话拼音 + 中译英 HTTP 服务",
	Long: `pinyin-translate 提供中文转拼音和中译英接口。

Example:
  pinyin-translate serve --config config.yaml
  pinyin-translate pinyin 你好`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger, closer, err := NewLogger(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return StartPinyinTranslateService(ctx, cfg, logger)
	},
}

// 本地转写，读取配置文件中的 pinyin 段，命令行参数优先
var pinyinCmd = &cobra.Command{
	Use:   "pinyin [text]",
	Short: "输出文本的拼音",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadPinyinConfig(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		t, err := NewPinyinTransliterator(cfg)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		py, err := t.Transliterate(cmd.Context(), text)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		fmt.Fprintln(cmd.OutOrStdout(), py)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "输出版本号",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件 (默认 ./config.yaml)")

	serveCmd.Flags().String("addr", ":8000", "监听地址")
	serveCmd.Flags().String("log-level", "info", "日志级别 debug/info/warn/error")

	pinyinCmd.Flags().String("tone", string(ToneUnicode), "声调格式 unicode/ascii/none")
	pinyinCmd.Flags().Bool("numbers", false, "阿拉伯数字按中文读法注音")
	pinyinCmd.Flags().Bool("traditional", false, "先把繁体转为简体")

	rootCmd.AddCommand(serveCmd, pinyinCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
