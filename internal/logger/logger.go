// Package logger 在标准库 log 之上提供分级输出，终端下为级别标签着色。
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level 日志级别
type Level int32

// 日志级别常量
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgBlue),
	LevelInfo:  color.New(color.FgWhite),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

var (
	std      = log.New(os.Stderr, "", log.LstdFlags)
	minLevel atomic.Int32
	colored  atomic.Bool
)

func init() {
	minLevel.Store(int32(LevelInfo))
	colored.Store(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}

// ParseLevel 解析级别名称，无法识别时返回 LevelInfo
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel 设置最低输出级别
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

// SetOutput 重定向日志输出，非终端输出时关闭颜色
func SetOutput(w io.Writer) {
	std.SetOutput(w)
	if f, ok := w.(*os.File); ok {
		colored.Store(isatty.IsTerminal(f.Fd()))
		return
	}
	colored.Store(false)
}

func logf(level Level, format string, args ...interface{}) {
	if int32(level) < minLevel.Load() {
		return
	}
	tag := "[" + levelNames[level] + "]"
	if colored.Load() {
		tag = levelColors[level].Sprint(tag)
	}
	std.Output(3, tag+" "+fmt.Sprintf(format, args...))
}

// Debugf 输出调试日志
func Debugf(format string, args ...interface{}) { logf(LevelDebug, format, args...) }

// Infof 输出普通日志
func Infof(format string, args ...interface{}) { logf(LevelInfo, format, args...) }

// Warnf 输出警告日志
func Warnf(format string, args ...interface{}) { logf(LevelWarn, format, args...) }

// Errorf 输出错误日志
func Errorf(format string, args ...interface{}) { logf(LevelError, format, args...) }

// Fatalf 输出错误日志并退出进程
func Fatalf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
	os.Exit(1)
}
