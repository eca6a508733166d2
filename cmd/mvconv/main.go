package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/mvconv/internal/app/run"
	"github.com/John-Robertt/mvconv/internal/config"
	"github.com/John-Robertt/mvconv/internal/domain"
	"github.com/John-Robertt/mvconv/internal/infra/fsx"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError 携带进程退出码；message 为空表示已经输出过错误信息。
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

type globalFlags struct {
	dir string
}

type outputFlags struct {
	sortKey string
	outDir  string
	report  string
	quiet   bool
	verbose bool
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.message != "" {
			fmt.Fprintln(stderr, ee.message)
		}
		return ee.code
	}
	// cobra 自身的参数/命令错误。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	return exitUsage
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "mvconv",
		Short:         "把纯文本电影记录转换为 JSON、排序 JSON 与 XML",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "工作目录（配置文件、.env 与相对路径的基准）")

	root.AddCommand(newRunCmd(g, stdout, stderr), newSortCmd(g, stdout, stderr))
	return root
}

func newRunCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		of      outputFlags
		rawURL  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "读取记录文本（本地文件或 URL），写出三个产物",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := config.CLIArgs{
				URL:        rawURL,
				SortKey:    of.sortKey,
				OutDir:     of.outDir,
				Report:     of.report,
				Offline:    offline,
				OfflineSet: cmd.Flags().Changed("offline"),
			}
			if len(args) == 1 {
				cli.Source = args[0]
			}

			eff, err := loadConfig(g.dir, cli)
			if err != nil {
				return err
			}

			ui := newConsoleUI(echoWriter(stdout, of.quiet), progressWriter(stderr, of.verbose))
			rr := run.ExecuteWithObserver(cmd.Context(), eff, ui)
			return finishRun(stderr, eff, rr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&rawURL, "url", "", "从 http(s) URL 读取记录文本（同时给出 source 时以 URL 为准）")
	f.BoolVar(&offline, "offline", false, "只从 <out>/cache/sources/ 读取 URL 文本，不访问网络")
	bindOutputFlags(cmd, &of)
	return cmd
}

func newSortCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var of outputFlags

	cmd := &cobra.Command{
		Use:   "sort <Movies.json>",
		Short: "读取已有的 Movies.json，按新的排序键重写排序 JSON 与 XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := loadConfig(g.dir, config.CLIArgs{
				SortKey:      of.sortKey,
				OutDir:       of.outDir,
				Report:       of.report,
				IgnoreSource: true,
			})
			if err != nil {
				return err
			}

			in := args[0]
			if !filepath.IsAbs(in) {
				in = filepath.Join(workDir(g.dir), in)
			}

			ui := newConsoleUI(echoWriter(stdout, of.quiet), progressWriter(stderr, of.verbose))
			rr := run.Resort(cmd.Context(), eff, filepath.Clean(in), ui)
			return finishRun(stderr, eff, rr)
		},
	}
	bindOutputFlags(cmd, &of)
	return cmd
}

func bindOutputFlags(cmd *cobra.Command, of *outputFlags) {
	f := cmd.Flags()
	f.StringVar(&of.sortKey, "sort", "", "排序键：title|genre|director|studio|year（默认 title）")
	f.StringVar(&of.outDir, "out", "", "输出目录（默认工作目录）")
	f.StringVar(&of.report, "report", "", "把运行报告 JSON 写到该文件")
	f.BoolVarP(&of.quiet, "quiet", "q", false, "不在 stdout 回显 JSON 与 XML 提示")
	f.BoolVarP(&of.verbose, "verbose", "v", false, "在 stderr 输出生效配置与阶段耗时")
}

func workDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func loadConfig(dir string, cli config.CLIArgs) (config.EffectiveConfig, error) {
	cwd := workDir(dir)
	if err := config.LoadDotEnv(cwd); err != nil {
		return config.EffectiveConfig{}, configExit(err)
	}
	eff, err := config.LoadEffective(cwd, cli, os.LookupEnv)
	if err != nil {
		return config.EffectiveConfig{}, configExit(err)
	}
	return eff, nil
}

// configExit 把配置错误映射为 "<error_code>: <message>" 与退出码 2。
func configExit(err error) error {
	var ce *config.Error
	if errors.As(err, &ce) {
		return &exitError{code: exitUsage, message: fmt.Sprintf("%s: %s", ce.Code, ce.Message())}
	}
	return &exitError{code: exitUsage, message: fmt.Sprintf("%s: %v", config.ErrCodeInvalid, err)}
}

// finishRun 写出可选的运行报告、输出完成摘要，并把 RunReport 映射为退出码。
func finishRun(stderr io.Writer, eff config.EffectiveConfig, rr domain.RunReport) error {
	if eff.Report != "" {
		if err := writeReportFile(eff.Report, rr); err != nil {
			fmt.Fprintf(stderr, "写入运行报告失败：%v\n", err)
			emitSummary(stderr, rr)
			return &exitError{code: exitFailure}
		}
	}

	emitSummary(stderr, rr)
	if rr.OK() {
		return nil
	}
	return &exitError{code: exitFailure}
}

func emitSummary(w io.Writer, rr domain.RunReport) {
	fmt.Fprintf(w, "完成：records=%d status=%s\n", rr.Records, rr.Status)
	if !rr.OK() {
		fmt.Fprintf(w, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
}

func writeReportFile(path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFile(path, b)
}

func echoWriter(stdout io.Writer, quiet bool) io.Writer {
	if quiet {
		return nil
	}
	return stdout
}

func progressWriter(stderr io.Writer, verbose bool) io.Writer {
	if !verbose {
		return nil
	}
	return stderr
}
