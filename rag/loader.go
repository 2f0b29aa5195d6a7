package rag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions 支持加载的文件类型
var SupportedExtensions = []string{".txt", ".md", ".json"}

// LoadFile 读取单个文件为 Document。JSON 文件会被格式化为缩进文本，
// 以便分块器按行切割。
func LoadFile(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	var content string
	switch ext {
	case ".txt", ".md":
		content = string(data)
	case ".json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return Document{}, fmt.Errorf("parse json %s: %w", path, err)
		}
		content = buf.String()
	default:
		return Document{}, fmt.Errorf("unsupported file type %q (supported: %s)",
			ext, strings.Join(SupportedExtensions, ", "))
	}

	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("file %s is empty", path)
	}

	return Document{
		ID:      filepath.Base(path),
		Content: content,
		Metadata: map[string]interface{}{
			"source":    path,
			"file_name": filepath.Base(path),
			"file_type": strings.TrimPrefix(ext, "."),
		},
	}, nil
}
