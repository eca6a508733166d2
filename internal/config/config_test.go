package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/mvconv/internal/domain"
)

func envMap(m map[string]string) LookupEnv {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Source != filepath.Join(cwd, DefaultSource) {
		t.Fatalf("默认输入源不一致：%q", eff.Source)
	}
	if eff.URL != "" {
		t.Fatalf("默认不应有 url：%q", eff.URL)
	}
	if eff.SortKey != domain.FieldTitle {
		t.Fatalf("默认排序键应为 Title，实际 %v", eff.SortKey)
	}
	if eff.OutDir != cwd {
		t.Fatalf("默认输出目录应为 cwd，实际 %q", eff.OutDir)
	}
	if eff.JSONName != DefaultJSONName || eff.SortedName != DefaultSortedName || eff.XMLName != DefaultXMLName {
		t.Fatalf("默认输出文件名不一致：%q %q %q", eff.JSONName, eff.SortedName, eff.XMLName)
	}
	if eff.Timeout != DefaultTimeout || eff.RetryMax != 0 || eff.Cache || eff.Offline {
		t.Fatalf("网络默认值不一致：%+v", eff)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"sort_key":"genre","out_dir":"from-file","source":"file.txt"}`))

	// 配置文件生效。
	eff, err := LoadEffective(cwd, CLIArgs{}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.SortKey != domain.FieldGenre || eff.OutDir != filepath.Join(cwd, "from-file") || eff.Source != filepath.Join(cwd, "file.txt") {
		t.Fatalf("配置文件未生效：%+v", eff)
	}

	// 环境变量覆盖配置文件。
	env := envMap(map[string]string{EnvSortKey: "Year", EnvOutDir: "from-env"})
	eff, err = LoadEffective(cwd, CLIArgs{}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.SortKey != domain.FieldYear || eff.OutDir != filepath.Join(cwd, "from-env") {
		t.Fatalf("环境变量未覆盖配置文件：%+v", eff)
	}

	// CLI 覆盖环境变量。
	eff, err = LoadEffective(cwd, CLIArgs{SortKey: "studio", OutDir: "/abs/out"}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.SortKey != domain.FieldStudio || eff.OutDir != filepath.Clean("/abs/out") {
		t.Fatalf("CLI 未覆盖环境变量：%+v", eff)
	}
}

func TestLoadEffective_SourceLayerDecidesURLAndPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"url":"https://example.test/Movies.txt"}`))

	eff, err := LoadEffective(cwd, CLIArgs{}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.URL != "https://example.test/Movies.txt" || eff.SourceLabel() != eff.URL {
		t.Fatalf("配置文件中的 url 未生效：%+v", eff)
	}

	// CLI 给了本地路径：配置文件的 url 不应“漏”上来。
	eff, err = LoadEffective(cwd, CLIArgs{Source: "local.txt"}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.URL != "" || eff.Source != filepath.Join(cwd, "local.txt") {
		t.Fatalf("CLI 本地路径应优先：%+v", eff)
	}
}

func TestLoadEffective_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		file string
		cli  CLIArgs
	}{
		{name: "bad json", file: `{`},
		{name: "bad sort key", cli: CLIArgs{SortKey: "rating"}},
		{name: "url scheme", cli: CLIArgs{URL: "ftp://example.test/x"}},
		{name: "name with dir", file: `{"xml_name":"../Movies.xml"}`},
		{name: "duplicate names", file: `{"json_name":"a.json","sorted_name":"a.json"}`},
		{name: "negative timeout", file: `{"timeout_sec":-1}`},
		{name: "offline without url", cli: CLIArgs{Offline: true, OfflineSet: true}},
		{name: "proxy without scheme", file: `{"url":"https://example.test/m.txt","proxy":{"url":"proxyhost"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			if tc.file != "" {
				writeFile(t, filepath.Join(cwd, FileName), []byte(tc.file))
			}
			_, err := LoadEffective(cwd, tc.cli, nil)
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_IgnoreSourceSkipsSourceValidation(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"url":"ftp://example.test/old.txt","offline":true,"sort_key":"year"}`))

	if _, err := LoadEffective(cwd, CLIArgs{}, nil); Code(err) != ErrCodeInvalid {
		t.Fatalf("未忽略输入源时应校验 url，实际 err=%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{IgnoreSource: true}, nil)
	if err != nil {
		t.Fatalf("忽略输入源时不应报错：%v", err)
	}
	if eff.URL != "" || eff.Source != "" || eff.Offline {
		t.Fatalf("忽略输入源时不应带出 url/source/offline：%+v", eff)
	}
	if eff.SortKey != domain.FieldYear {
		t.Fatalf("其他配置仍应生效：%+v", eff)
	}
}

func TestError_MessageWithoutCode(t *testing.T) {
	e := &Error{Code: ErrCodeInvalid, Path: "/x/mvconv.json", Err: errors.New("坏了")}
	if e.Message() != `"/x/mvconv.json"：坏了` {
		t.Fatalf("Message 不一致：%q", e.Message())
	}
	if e.Error() != ErrCodeInvalid+`："/x/mvconv.json"：坏了` {
		t.Fatalf("Error 不一致：%q", e.Error())
	}
}

func TestLoadEffective_NetworkAndOffline(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
		"url": "https://example.test/m.txt",
		"proxy": {"url": "http://127.0.0.1:8080"},
		"timeout_sec": 5,
		"retry_max": 99,
		"offline": true
	}`))

	eff, err := LoadEffective(cwd, CLIArgs{}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ProxyURL != "http://127.0.0.1:8080" || eff.Timeout != 5*time.Second || eff.RetryMax != 5 {
		t.Fatalf("网络配置不一致：%+v", eff)
	}
	if !eff.Offline || !eff.Cache {
		t.Fatalf("offline 应隐含启用缓存：%+v", eff)
	}

	// --offline=false 覆盖配置文件。
	eff, err = LoadEffective(cwd, CLIArgs{Offline: false, OfflineSet: true}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Offline {
		t.Fatalf("期望 offline=false")
	}
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, EnvFileName), []byte("MVCONV_TEST_A=from-file\nMVCONV_TEST_B=from-file\n"))
	t.Setenv("MVCONV_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("MVCONV_TEST_B") })

	if err := LoadDotEnv(cwd); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if v := os.Getenv("MVCONV_TEST_A"); v != "from-env" {
		t.Fatalf("已有环境变量不应被覆盖：%q", v)
	}
	if v := os.Getenv("MVCONV_TEST_B"); v != "from-file" {
		t.Fatalf(".env 未加载：%q", v)
	}

	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Fatalf(".env 不存在不应报错：%v", err)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
