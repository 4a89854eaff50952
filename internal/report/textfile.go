package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Mode 控制文本报告的写入方式。
type Mode int

const (
	// ModeAppend 追加到文件末尾。
	ModeAppend Mode = iota
	// ModeOverwrite 先清空文件再写入。
	ModeOverwrite
)

// WriteMetrics 将小节写入文本文件，必要时创建上级目录。
func WriteMetrics(path string, mode Mode, s Section) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: 创建目录 %q 失败: %w", dir, err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == ModeOverwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("report: 打开 %q 失败: %w", path, err)
	}

	if _, err := f.WriteString(s.Render()); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: 写入 %q 失败: %w", path, err)
	}
	return f.Close()
}

// TextFile 为文本报告 sink。ModeOverwrite 只在第一次写入时清空文件，之后的小节追加在后面。
type TextFile struct {
	Path    string
	Mode    Mode
	written bool
}

// NewTextFile 创建文本 sink。
func NewTextFile(path string, mode Mode) *TextFile {
	return &TextFile{Path: path, Mode: mode}
}

// Write 实现 Sink。
func (t *TextFile) Write(_ context.Context, s Section) error {
	mode := t.Mode
	if t.written {
		mode = ModeAppend
	}
	if err := WriteMetrics(t.Path, mode, s); err != nil {
		return err
	}
	t.written = true
	return nil
}
