package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/mvconv/internal/infra/fsx"
)

// Store 提供 <root>/cache/sources/ 下的输入源文本缓存读写。
//
// 约束：
// - offline：只允许读（ReadOnly=true）
// - 正常抓取：允许写（ReadOnly=false）
type Store struct {
	Root     string // 输出目录
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// SourcePath 返回 URL 对应缓存文件的绝对路径（文件名为 URL 的 sha256 前 16 位）。
func (s Store) SourcePath(rawURL string) (string, error) {
	key, err := sourceKey(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "cache", "sources", key+".txt"), nil
}

func (s Store) ReadSource(rawURL string) ([]byte, bool, error) {
	path, err := s.SourcePath(rawURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WriteSource(rawURL string, text []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	key, err := sourceKey(rawURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, "cache", "sources"), key+".txt", text)
}

func sourceKey(rawURL string) (string, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return "", fmt.Errorf("url 不能为空")
	}
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:])[:16], nil
}
