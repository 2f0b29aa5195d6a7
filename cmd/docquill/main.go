// =============================================================================
// DocQuill 主入口
// =============================================================================
// 让文档自己回答问题的命令行工具
//
// 使用方法:
//
//	docquill chat report.txt                  # 加载文档并交互问答
//	docquill chat --config dq.yaml notes.md   # 指定配置文件
//	docquill ask report.txt "这份报告讲什么"    # 单次提问
//	docquill summary report.txt               # 文档自我介绍
//	docquill version                          # 显示版本信息
// =============================================================================
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/docquill/docquill/config"
)

// 构建时通过 ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "summary":
		runSummary(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseCommon 解析各子命令共有的 --config 参数并加载配置
func parseCommon(name string, args []string) (*config.Config, []string, string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	return cfg, fs.Args(), *configPath
}

func runChat(args []string) {
	cfg, rest, configPath := parseCommon("chat", args)
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: docquill chat [--config FILE] DOCUMENT...")
		os.Exit(1)
	}

	app, err := newApp(cfg, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.RunChat(rest); err != nil {
		app.logger.Fatal("chat session failed", zap.Error(err))
	}
}

func runAsk(args []string) {
	cfg, rest, configPath := parseCommon("ask", args)
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: docquill ask [--config FILE] DOCUMENT QUESTION")
		os.Exit(1)
	}

	app, err := newApp(cfg, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.RunAsk(rest[0], rest[1]); err != nil {
		app.logger.Fatal("ask failed", zap.Error(err))
	}
}

func runSummary(args []string) {
	cfg, rest, configPath := parseCommon("summary", args)
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: docquill summary [--config FILE] DOCUMENT")
		os.Exit(1)
	}

	app, err := newApp(cfg, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.RunSummary(rest[0]); err != nil {
		app.logger.Fatal("summary failed", zap.Error(err))
	}
}

func printVersion() {
	fmt.Printf("DocQuill %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func printUsage() {
	fmt.Println(`DocQuill - talk to your documents

Usage:
  docquill chat [--config FILE] DOCUMENT...   Interactive first-person Q&A
  docquill ask [--config FILE] DOCUMENT Q     Ask a single question
  docquill summary [--config FILE] DOCUMENT   Let the document introduce itself
  docquill version                            Show version information

Environment:
  DOCQUILL_LLM_API_KEY        API key for the chat model
  DOCQUILL_EMBEDDING_API_KEY  API key for the embedding model (optional)`)
}

// initLogger 根据配置构建 zap logger
func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if zapConfig.Encoding != "console" {
		zapConfig.Encoding = "json"
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
