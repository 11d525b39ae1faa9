package main

import (
	"strings"
)

const ansiReset = "\033[0m"

// LogLevel 表示输出级别
type LogLevel string

// 输出级别常量
const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogLevelColor 输出级别对应的ANSI颜色代码
var LogLevelColor = map[LogLevel]string{
	LogLevelInfo:  "\033[37m", // 白色
	LogLevelWarn:  "\033[33m", // 黄色
	LogLevelError: "\033[31m", // 红色
}

// MinecraftFormatCode Minecraft格式控制符到ANSI转义序列的映射
var MinecraftFormatCode = map[rune]string{
	// 颜色代码
	'0': "\033[30m",   // 黑色
	'1': "\033[34;1m", // 深蓝色
	'2': "\033[32;1m", // 深绿色
	'3': "\033[36;1m", // 湖蓝色
	'4': "\033[31;1m", // 深红色
	'5': "\033[35;1m", // 紫色
	'6': "\033[33m",   // 金色
	'7': "\033[37m",   // 灰色
	'8': "\033[30;1m", // 深灰色
	'9': "\033[34m",   // 蓝色
	'a': "\033[32m",   // 绿色
	'b': "\033[36m",   // 天蓝色
	'c': "\033[31m",   // 红色
	'd': "\033[35m",   // 粉红色
	'e': "\033[33m",   // 黄色
	'f': "\033[37;1m", // 白色

	// 格式化代码
	'k': "\033[5m", // 随机字符 (闪烁)
	'l': "\033[1m", // 粗体
	'm': "\033[9m", // 删除线
	'n': "\033[4m", // 下划线
	'o': "\033[3m", // 斜体
	'r': ansiReset, // 重置
}

// parseMinecraftFormat 把 § 格式控制符转换为ANSI转义序列
// §r 重置到级别对应的颜色；enableColor 为 false 时只去掉控制符
func parseMinecraftFormat(text string, level LogLevel, enableColor bool) string {
	base, ok := LogLevelColor[level]
	if !ok {
		base = LogLevelColor[LogLevelInfo]
	}

	var sb strings.Builder
	if enableColor {
		sb.WriteString(base)
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '§' && i+1 < len(runes) {
			code := runes[i+1]
			if code >= 'A' && code <= 'Z' {
				code += 'a' - 'A'
			}
			if ansi, ok := MinecraftFormatCode[code]; ok {
				if enableColor {
					if code == 'r' {
						sb.WriteString(ansiReset + base)
					} else {
						sb.WriteString(ansi)
					}
				}
				i++
				continue
			}
		}
		sb.WriteRune(runes[i])
	}

	if enableColor {
		sb.WriteString(ansiReset)
	}
	return sb.String()
}
