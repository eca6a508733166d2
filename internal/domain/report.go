package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	OutputUnsorted = "json"
	OutputSorted   = "sorted_json"
	OutputXML      = "xml"
)

const (
	ErrCodeNoRecords      = "no_records"
	ErrCodeDecodeFailed   = "decode_failed"
	ErrCodeEncodeFailed   = "encode_failed"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeConfigInvalid  = "config_invalid"
)

// RunReport 是一次运行的对外稳定摘要（--report 落盘 / stderr 摘要）。
type RunReport struct {
	Source  string `json:"source"`
	SortKey string `json:"sort_key"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Records   int    `json:"records"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Outputs []OutputResult `json:"outputs"`
}

type OutputResult struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Bytes    int    `json:"bytes"`
	Status   string `json:"status"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

// Fail 记录失败（只保留第一个错误，后续步骤不会覆盖根因）。
func (r *RunReport) Fail(code, msg string) {
	if r.Status == StatusFailed {
		return
	}
	r.Status = StatusFailed
	r.ErrorCode = code
	r.ErrorMsg = msg
}

// OK 表示整次运行成功。
func (r RunReport) OK() bool { return r.Status == StatusOK }

// Finalize 统一时间为 UTC，并保证 outputs 非 nil（JSON 输出 [] 而不是 null）。
// 未失败的运行在此时标记为 ok。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Outputs == nil {
		r.Outputs = []OutputResult{}
	}
	if r.Status == "" {
		r.Status = StatusOK
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
