package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_FinalizeUTCAndStatus(t *testing.T) {
	r := RunReport{
		Source:     "/abs/Movies.txt",
		SortKey:    "Title",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
	}

	r.Finalize()

	if !r.OK() {
		t.Fatalf("未失败的运行应为 ok，实际 status=%q", r.Status)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	if !bytes.Contains(b, []byte("\"outputs\":[]")) {
		t.Fatalf("outputs 应输出为 []：%s", string(b))
	}
}

func TestRunReport_FailKeepsFirstCause(t *testing.T) {
	var r RunReport
	r.Fail(ErrCodeNoRecords, "first")
	r.Fail(ErrCodeIOFailed, "second")
	r.Finalize()

	if r.OK() {
		t.Fatalf("期望失败状态")
	}
	if r.ErrorCode != ErrCodeNoRecords || r.ErrorMsg != "first" {
		t.Fatalf("应保留第一个错误，实际 %q %q", r.ErrorCode, r.ErrorMsg)
	}
}
