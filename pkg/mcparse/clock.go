package mcparse

import (
	"fmt"
	"strconv"
	"strings"
)

// TicksPerDay 游戏内一天的刻数
const TicksPerDay = 24000

// ParseTimeQuery 解析 "time query" 的响应（The time is 1234）
func ParseTimeQuery(response string) (int64, bool) {
	if !strings.Contains(response, "The time is") {
		return 0, false
	}
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return 0, false
	}
	ticks, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, false
	}
	return ticks, true
}

// FormatMinecraftTime 将游戏刻换算为游戏内时钟 HH:MM，0 刻对应 06:00
func FormatMinecraftTime(ticks int64) string {
	ticks %= TicksPerDay
	if ticks < 0 {
		ticks += TicksPerDay
	}
	hours := (ticks/1000 + 6) % 24
	minutes := (ticks % 1000) * 60 / 1000
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// FormatUptime 将秒数格式化为 HH:MM:SS，小时数可以超过24
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
