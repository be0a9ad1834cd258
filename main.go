package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ByLCY/vellum/config"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/server"
	"github.com/ByLCY/vellum/session"
	"github.com/ByLCY/vellum/stores"
	"github.com/ByLCY/vellum/textfit"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "vellum",
		Short:         "画布编辑器交互与布局引擎",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("无效的日志级别: %w", err)
			}
			logrus.SetLevel(level)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别 (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML 配置文件路径")

	loadSettings := func() (*config.Settings, error) {
		if configPath == "" {
			return config.Default(), nil
		}
		return config.Load(configPath)
	}

	rootCmd.AddCommand(newRunCommand(loadSettings))
	rootCmd.AddCommand(newMeasureCommand(loadSettings))
	rootCmd.AddCommand(newServeCommand(loadSettings))
	return rootCmd
}

type settingsLoader func() (*config.Settings, error)

func newRunCommand(loadSettings settingsLoader) *cobra.Command {
	var (
		docPath    string
		docID      string
		dataJSON   string
		outPath    string
		reportPath string
		save       bool
	)
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "在文档上执行交互脚本并输出报告",
		Example: `  vellum run examples/drag.vellum --data '{"title":"Hello"}'
  vellum run edit.vellum --doc poster.json --out poster.json
  STORAGE_TYPE=sqlite vellum run edit.vellum --doc-id 01HX... --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			var data any
			if dataJSON != "" {
				if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
					return fmt.Errorf("解析 data JSON 失败: %w", err)
				}
			}

			ctx := cmd.Context()
			var store document.Store
			doc := document.New("", geom.Size{Width: settings.Canvas.Width, Height: settings.Canvas.Height})
			switch {
			case docID != "":
				if store, err = stores.GetStore(ctx); err != nil {
					return err
				}
				if doc, err = store.Get(ctx, docID); err != nil {
					return fmt.Errorf("读取文档 %s 失败: %w", docID, err)
				}
			case docPath != "":
				raw, err := os.ReadFile(docPath)
				if err != nil {
					return fmt.Errorf("无法打开文档 %s: %w", docPath, err)
				}
				if doc, err = document.Decode(raw); err != nil {
					return fmt.Errorf("解析文档 %s 失败: %w", docPath, err)
				}
			}

			opts := session.Options{Settings: settings, Data: data}
			if save {
				if store == nil {
					return fmt.Errorf("--save 需要配合 --doc-id")
				}
				opts.Store = store
			}
			report, runErr := run(ctx, args[0], doc, opts, func(sess *session.Session) error {
				if outPath != "" {
					if err := writeDocument(sess.Snapshot(), outPath); err != nil {
						return err
					}
				}
				if save {
					saved, err := sess.Save(ctx)
					if err != nil {
						return fmt.Errorf("保存文档失败: %w", err)
					}
					logrus.WithFields(logrus.Fields{"document_id": docID, "saved": saved}).Info("document saved")
				}
				return nil
			})
			if report != nil {
				if err := writeReport(report, reportPath, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "作为起点的文档 JSON 文件")
	cmd.Flags().StringVar(&docID, "doc-id", "", "从存储读取的文档 ID（后端由 STORAGE_TYPE 决定）")
	cmd.Flags().StringVar(&dataJSON, "data", "", "绑定到脚本的 JSON 数据")
	cmd.Flags().StringVar(&outPath, "out", "", "结果文档的输出路径")
	cmd.Flags().StringVar(&reportPath, "report", "-", "报告输出路径，- 表示标准输出")
	cmd.Flags().BoolVar(&save, "save", false, "脚本成功后写回存储（需配合 --doc-id）")
	return cmd
}

// run 串联解析、执行与保存。脚本失败时仍返回已执行部分的报告。
func run(ctx context.Context, scriptPath string, doc document.Document, opts session.Options, onSuccess func(*session.Session) error) (*session.Report, error) {
	file, err := os.Open(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开脚本文件 %s: %w", scriptPath, err)
	}
	defer file.Close()

	script, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析脚本失败: %w", err)
	}
	sess := session.New(doc, opts)
	defer sess.Close()
	report, err := sess.Run(ctx, script)
	if err != nil {
		return report, fmt.Errorf("执行脚本失败: %w", err)
	}
	return report, onSuccess(sess)
}

func writeDocument(doc document.Document, path string) error {
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文档失败: %w", err)
	}
	return nil
}

func writeReport(report *session.Report, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("编码报告失败: %w", err)
	}
	if path == "" || path == "-" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func newMeasureCommand(loadSettings settingsLoader) *cobra.Command {
	var style textfit.Style
	var width float64
	cmd := &cobra.Command{
		Use:   "measure <text>",
		Short: "测量文本的自适应宽度与折行高度",
		Example: `  vellum measure "Add a heading" --font-size 32 --bold
  vellum measure "long paragraph ..." --width 240`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			measurer := session.MeasurerFor(settings)
			engine := textfit.NewEngine(textfit.Options{
				Measurer:    measurer,
				PixelRatio:  settings.Text.PixelRatio,
				SurfaceSize: settings.Text.SurfaceSize,
			})
			content := strings.ReplaceAll(args[0], `\n`, "\n")
			w := width
			if w <= 0 {
				w = engine.MeasureWidth(content, style)
			}
			lines, err := engine.Wrap(content, w, style)
			if err != nil {
				return fmt.Errorf("折行失败: %w", err)
			}
			out := struct {
				Width          float64  `json:"width"`
				Height         float64  `json:"height"`
				Lines          []string `json:"lines"`
				FontLineHeight float64  `json:"fontLineHeight,omitempty"`
			}{Width: w, Height: engine.MeasureHeight(content, w, style), Lines: lines}
			// 真实字体才有自身的行高度量
			if lh, ok := measurer.(interface {
				LineHeight(textfit.Font) (float64, error)
			}); ok {
				if v, err := lh.LineHeight(style.Font()); err == nil {
					out.FontLineHeight = v
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Float64Var(&style.FontSize, "font-size", 24, "字号")
	cmd.Flags().StringVar(&style.FontFamily, "family", "Go", "字体族")
	cmd.Flags().Float64Var(&style.LetterSpacing, "letter-spacing", 0, "字距（em）")
	cmd.Flags().Float64Var(&style.LineHeight, "line-height", 1.2, "行高（字号倍数）")
	cmd.Flags().BoolVar(&style.IsBold, "bold", false, "粗体")
	cmd.Flags().BoolVar(&style.IsItalic, "italic", false, "斜体")
	cmd.Flags().Float64Var(&width, "width", 0, "固定宽度；为 0 时使用自适应宽度")
	return cmd
}

func newServeCommand(loadSettings settingsLoader) *cobra.Command {
	var listenAddress string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
			defer stop()

			store, err := stores.GetStore(ctx)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              listenAddress,
				Handler:           server.New(store, server.Options{Settings: settings}).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logrus.WithField("addr", listenAddress).Info("starting server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			logrus.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listenAddress, "listen", ":3002", "监听地址")
	return cmd
}
