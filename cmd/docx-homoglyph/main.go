package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/allanpk716/docx_homoglyph/internal/cmd"
	"github.com/allanpk716/docx_homoglyph/internal/config"
	"github.com/allanpk716/docx_homoglyph/internal/domain"
	"github.com/allanpk716/docx_homoglyph/internal/homoglyph"
	"github.com/allanpk716/docx_homoglyph/internal/logging"
	"github.com/allanpk716/docx_homoglyph/internal/processor"
	"github.com/allanpk716/docx_homoglyph/internal/server"
	"github.com/allanpk716/docx_homoglyph/pkg/docx"
)

// Globals 全局参数
type Globals struct {
	Config  string  `name:"config" short:"c" help:"配置文件路径" default:"config.json" type:"path"`
	Verbose bool    `name:"verbose" short:"v" help:"详细输出"`
	Seed    *uint64 `name:"seed" help:"随机数种子，指定后输出可复现"`
}

// CLI 命令行定义
type CLI struct {
	Globals

	Convert  ConvertCmd  `cmd:"" help:"转换单个 DOCX 文件"`
	Batch    BatchCmd    `cmd:"" help:"批量转换目录中的 DOCX 文件"`
	Serve    ServeCmd    `cmd:"" help:"启动 HTTP 转换服务"`
	Extract  ExtractCmd  `cmd:"" help:"输出文档正文的纯文本"`
	Inspect  InspectCmd  `cmd:"" help:"比较两个文档的条目摘要"`
	Validate ValidateCmd `cmd:"" help:"检查文档的包结构"`
	Sample   SampleCmd   `cmd:"" help:"生成只包含给定段落的示例文档"`
	Version  VersionCmd  `cmd:"" help:"显示版本信息"`
}

// appEnv 由全局参数和配置文件构造的运行环境
type appEnv struct {
	cfg       *config.Config
	processor domain.DocumentProcessor
}

func (g *Globals) load() (*appEnv, error) {
	manager := config.NewConfigManager()
	cfg, err := manager.LoadConfigOrDefault(g.Config)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}

	if err := config.ApplyLogging(cfg, g.Verbose); err != nil {
		return nil, err
	}

	table, err := manager.GetTable(cfg)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if g.Seed != nil {
		seed = g.Seed
	}

	factory := func() domain.TextSubstituter {
		var rnd homoglyph.RandSource
		if seed != nil {
			rnd = homoglyph.NewRand(*seed)
		}
		return homoglyph.NewSubstituter(table, rnd)
	}

	logging.Debug("配置已加载", "config", g.Config, "project", cfg.ProjectName, "table", cfg.Table)

	return &appEnv{
		cfg:       cfg,
		processor: processor.NewDocumentProcessor(factory, cfg.Processing.ShouldVerify()),
	}, nil
}

// ConvertCmd 转换单个文件
type ConvertCmd struct {
	Input  string `arg:"" help:"输入 DOCX 文件" type:"existingfile"`
	Output string `name:"output" short:"o" help:"输出文件路径，默认在文件名后加后缀" type:"path"`
}

func (c *ConvertCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.load()
	if err != nil {
		return err
	}

	output, err := cmd.ValidateSingleArgs(c.Input, c.Output, rt.cfg.Processing.OutputSuffix)
	if err != nil {
		return err
	}

	info, err := cmd.ProcessSingleFile(ctx, rt.processor, c.Input, output)
	if err != nil {
		return err
	}

	fmt.Printf("%s -> %s (替换 %d 个字符)\n", c.Input, info.OutputPath, info.ChangedRunes)
	return nil
}

// BatchCmd 批量转换
type BatchCmd struct {
	InputDir  string `arg:"" help:"输入目录" type:"existingdir"`
	OutputDir string `name:"output-dir" short:"o" help:"输出目录，默认为 <输入目录>_converted" type:"path"`
}

func (c *BatchCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.load()
	if err != nil {
		return err
	}

	outputDir, err := cmd.ValidateBatchArgs(c.InputDir, c.OutputDir)
	if err != nil {
		return err
	}

	result, err := cmd.ProcessBatchFiles(ctx, rt.processor, c.InputDir, outputDir, rt.cfg.Processing)
	if err != nil {
		return err
	}

	fmt.Printf("批量处理完成: 共 %d 个文件，成功 %d 个，失败 %d 个\n",
		result.TotalFiles, result.ProcessedFiles, len(result.Errors))
	if !result.Success {
		return fmt.Errorf("%d 个文件处理失败", len(result.Errors))
	}
	return nil
}

// ServeCmd HTTP 服务
type ServeCmd struct {
	Addr string `name:"addr" help:"监听地址，默认使用配置文件中的 listen_addr"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.load()
	if err != nil {
		return err
	}

	addr := rt.cfg.Server.ListenAddr
	if c.Addr != "" {
		addr = c.Addr
	}

	srv := server.New(rt.processor, server.Options{
		Addr:           addr,
		MaxUploadBytes: rt.cfg.Server.MaxUploadBytes(),
		OutputSuffix:   rt.cfg.Processing.OutputSuffix,
	})
	return srv.ListenAndServe(ctx)
}

// ExtractCmd 提取正文文本
type ExtractCmd struct {
	File string `arg:"" help:"DOCX 文件" type:"existingfile"`
}

func (c *ExtractCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	text, err := docx.ExtractText(data)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// InspectCmd 对比两个文档的条目
type InspectCmd struct {
	Original  string `arg:"" help:"原始文档" type:"existingfile"`
	Converted string `arg:"" help:"转换后的文档" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	before, err := manifestOf(c.Original)
	if err != nil {
		return err
	}
	after, err := manifestOf(c.Converted)
	if err != nil {
		return err
	}

	digests := make(map[string]string, len(after))
	for _, d := range after {
		digests[d.Name] = d.BLAKE3
	}
	for _, d := range before {
		if _, ok := digests[d.Name]; !ok {
			digests[d.Name] = d.BLAKE3
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tCHANGE\tBLAKE3")
	for _, change := range docx.CompareManifests(before, after) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", change.Name, change.Kind, digests[change.Name])
	}
	return tw.Flush()
}

func manifestOf(path string) ([]docx.EntryDigest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return docx.Manifest(data)
}

// ValidateCmd 检查包结构
type ValidateCmd struct {
	File string `arg:"" help:"DOCX 文件" type:"existingfile"`
}

func (c *ValidateCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	result, err := docx.ValidatePackage(data)
	if err != nil {
		return err
	}

	fmt.Printf("条目: %d  文本段: %d  Word 兼容: %t\n", result.Entries, result.TextRuns, result.WordCompatible)
	for _, w := range result.Warnings {
		fmt.Printf("警告: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("错误: %s\n", e)
	}
	if !result.IsValid {
		return fmt.Errorf("文档结构无效: %s", c.File)
	}
	return nil
}

// SampleCmd 生成示例文档
type SampleCmd struct {
	Output     string   `arg:"" help:"输出文件路径" type:"path"`
	Paragraphs []string `arg:"" optional:"" help:"段落文本"`
}

func (c *SampleCmd) Run() error {
	paragraphs := c.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = []string{"Hello", "The quick brown fox jumps over the lazy dog."}
	}

	data, err := docx.NewDocument(paragraphs...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, data, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}

	fmt.Printf("已生成示例文档: %s\n", c.Output)
	return nil
}

// VersionCmd 版本信息
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("%s v%s\n", cmd.AppName, cmd.AppVersion)
	return nil
}

func main() {
	var cli CLI

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name(cmd.AppName),
		kong.Description("把 DOCX 正文中的拉丁字母替换为外观相同的其他文字字符"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&cli.Globals),
	)

	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
