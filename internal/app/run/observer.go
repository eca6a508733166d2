package run

import (
	"time"

	"github.com/John-Robertt/mvconv/internal/config"
	"github.com/John-Robertt/mvconv/internal/domain"
)

// Observer 用于把“阶段/产物”事件从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出；如何展示（回显 JSON、打印进度）由 CLI 决定。
type Observer interface {
	// OnStart 在执行开始时调用一次。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（load/parse/sort/xml）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnOutput 在某个输出文件写入成功后调用；payload 为写入的完整内容。
	OnOutput(out domain.OutputResult, payload []byte)
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                    {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnOutput(domain.OutputResult, []byte)              {}
