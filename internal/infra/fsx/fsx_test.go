package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile_OverwritesAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "Movies.json")

	if err := WriteFile(dst, []byte("old")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFile(dst, []byte("[]\n")); err != nil {
		t.Fatalf("覆盖写入不期望错误：%v", err)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "[]\n" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".Movies.json.tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}

func TestWriteFileAtomicReplace_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	if err := WriteFileAtomicReplace(dir, "Movies.xml", []byte("<Movies/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Movies.xml")); err != nil {
		t.Fatalf("期望文件存在：%v", err)
	}
}

func TestWriteFileAtomicReplace_RenameFail_CleanupTemp(t *testing.T) {
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	err := WriteFileAtomicReplace(dir, "a.txt", []byte("hello"))
	if err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".a.txt.tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
		if e.Name() == "a.txt" {
			t.Fatalf("不应写出最终文件：%q", e.Name())
		}
	}
}

func TestWriteFileAtomicReplace_TargetConflictDir(t *testing.T) {
	dir := t.TempDir()

	// 目标路径是目录：应返回 PathTypeConflictError，且目录保持不变。
	if err := os.Mkdir(filepath.Join(dir, "Movies.xml"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomicReplace(dir, "Movies.xml", []byte("x"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
	fi, err := os.Stat(filepath.Join(dir, "Movies.xml"))
	if err != nil || !fi.IsDir() {
		t.Fatalf("目录不应被改动：%v", err)
	}
}
