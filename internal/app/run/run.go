package run

import (
	"context"
	"fmt"
	"time"

	"github.com/John-Robertt/mvconv/internal/config"
	"github.com/John-Robertt/mvconv/internal/domain"
	"github.com/John-Robertt/mvconv/internal/encode"
	"github.com/John-Robertt/mvconv/internal/infra/cache"
	"github.com/John-Robertt/mvconv/internal/infra/fsx"
	"github.com/John-Robertt/mvconv/internal/infra/httpx"
	"github.com/John-Robertt/mvconv/internal/parser"
	"github.com/John-Robertt/mvconv/internal/sorter"
	"github.com/John-Robertt/mvconv/internal/source"
)

// Execute 执行一次完整流程（load → parse → 写 JSON → sort → 写排序 JSON → 写 XML），
// 并返回对外稳定的 RunReport。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 接收阶段与产物事件。
//
// 规则：
// - 任何一步失败都会停止后续步骤，错误记录在 RunReport（只保留第一个根因）
// - 解析结果为空时仍写出未排序 JSON（[]），但跳过排序与 XML（error_code=no_records）
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) (rr domain.RunReport) {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr = domain.RunReport{
		Source:    eff.SourceLabel(),
		SortKey:   eff.SortKey.String(),
		StartedAt: time.Now().UTC(),
	}
	// 具名返回值：defer 中的 Finalize 对返回结果生效。
	defer finish(&rr)

	opts := source.Options{Offline: eff.Offline}
	if eff.URL != "" && !eff.Offline {
		c, err := httpx.NewSourceClient(httpx.Options{
			ProxyURL: eff.ProxyURL,
			Timeout:  eff.Timeout,
			RetryMax: eff.RetryMax,
		})
		if err != nil {
			rr.Fail(domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))
			return rr
		}
		opts.Client = c
	}
	if eff.Cache {
		store := cache.New(eff.OutDir, eff.Offline)
		opts.Cache = &store
	}

	loadStarted := time.Now()
	txt, err := source.Load(ctx, source.Input{URL: eff.URL, Path: eff.Source}, opts)
	if err != nil {
		rr.Fail(source.Code(err), err.Error())
		return rr
	}
	loadFields := map[string]any{
		"source":     txt.Origin,
		"bytes":      len(txt.Content),
		"html":       txt.HTML,
		"from_cache": txt.FromCache,
	}
	if txt.CacheErr != nil {
		loadFields["cache_error"] = txt.CacheErr.Error()
	}
	obs.OnPhaseDone("load", loadFields, time.Since(loadStarted))

	parseStarted := time.Now()
	movies := parser.Parse(txt.Content)
	rr.Records = len(movies)
	obs.OnPhaseDone("parse", map[string]any{"records": len(movies)}, time.Since(parseStarted))

	ok := writeOutput(&rr, obs, domain.OutputUnsorted, eff.OutputPath(eff.JSONName), func() ([]byte, error) {
		return encode.JSON(movies)
	})
	if !ok {
		return rr
	}
	if len(movies) == 0 {
		rr.Fail(domain.ErrCodeNoRecords, "输入中没有任何记录，跳过排序与 XML 生成")
		return rr
	}

	sortAndEmit(&rr, eff, movies, obs)
	return rr
}

// Resort 读取已有的 JSON（JSON 输出格式），按 eff.SortKey 重新排序并写出排序 JSON 与 XML。
// 不重新解析原始文本，也不改写输入文件。
func Resort(ctx context.Context, eff config.EffectiveConfig, in string, obs Observer) (rr domain.RunReport) {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr = domain.RunReport{
		Source:    in,
		SortKey:   eff.SortKey.String(),
		StartedAt: time.Now().UTC(),
	}
	defer finish(&rr)

	loadStarted := time.Now()
	txt, err := source.Load(ctx, source.Input{Path: in}, source.Options{})
	if err != nil {
		rr.Fail(source.Code(err), err.Error())
		return rr
	}
	movies, err := encode.DecodeJSON([]byte(txt.Content))
	if err != nil {
		rr.Fail(domain.ErrCodeDecodeFailed, fmt.Sprintf("解析 JSON 失败：%s：%v", in, err))
		return rr
	}
	rr.Records = len(movies)
	obs.OnPhaseDone("load", map[string]any{
		"source":  in,
		"records": len(movies),
	}, time.Since(loadStarted))

	if len(movies) == 0 {
		rr.Fail(domain.ErrCodeNoRecords, "输入中没有任何记录，跳过排序与 XML 生成")
		return rr
	}

	sortAndEmit(&rr, eff, movies, obs)
	return rr
}

func sortAndEmit(rr *domain.RunReport, eff config.EffectiveConfig, movies []domain.Movie, obs Observer) {
	sortStarted := time.Now()
	sorted := sorter.Sort(movies, eff.SortKey)
	obs.OnPhaseDone("sort", map[string]any{
		"key":     eff.SortKey.String(),
		"records": len(sorted),
	}, time.Since(sortStarted))

	ok := writeOutput(rr, obs, domain.OutputSorted, eff.OutputPath(eff.SortedName), func() ([]byte, error) {
		return encode.JSON(sorted)
	})
	if !ok {
		return
	}

	xmlStarted := time.Now()
	ok = writeOutput(rr, obs, domain.OutputXML, eff.OutputPath(eff.XMLName), func() ([]byte, error) {
		return encode.XML(sorted)
	})
	if !ok {
		return
	}
	obs.OnPhaseDone("xml", map[string]any{"movies": len(sorted)}, time.Since(xmlStarted))
}

// writeOutput 编码并原子写入一个输出文件，结果记入 rr.Outputs；成功返回 true。
func writeOutput(rr *domain.RunReport, obs Observer, kind, path string, enc func() ([]byte, error)) bool {
	out := domain.OutputResult{Kind: kind, Path: path}

	b, err := enc()
	if err != nil {
		out.Status = domain.StatusFailed
		out.ErrorMsg = err.Error()
		rr.Outputs = append(rr.Outputs, out)
		rr.Fail(domain.ErrCodeEncodeFailed, fmt.Sprintf("编码 %s 失败：%v", kind, err))
		return false
	}

	if err := fsx.WriteFile(path, b); err != nil {
		out.Status = domain.StatusFailed
		out.ErrorMsg = err.Error()
		rr.Outputs = append(rr.Outputs, out)
		code := domain.ErrCodeIOFailed
		if fsx.IsPathTypeConflict(err) {
			code = domain.ErrCodeTargetConflict
		}
		rr.Fail(code, fmt.Sprintf("写入 %s 失败：%v", path, err))
		return false
	}

	out.Status = domain.StatusOK
	out.Bytes = len(b)
	rr.Outputs = append(rr.Outputs, out)
	obs.OnOutput(out, b)
	return true
}

func finish(rr *domain.RunReport) {
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
}
