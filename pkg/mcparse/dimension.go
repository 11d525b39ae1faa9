package mcparse

import (
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"city.newnan/mc-status/internal/logger"
)

// DimensionNamer 将原始维度标识转换为显示名称
type DimensionNamer interface {
	Display(raw string) string
}

// DimensionResolver 基于JSON映射文件的维度名称解析器
// 映射表只在某个维度第一次出现时从磁盘读取，之后结果常驻内存
type DimensionResolver struct {
	path  string
	cache map[string]string
	mutex sync.RWMutex
}

// NewDimensionResolver 创建维度名称解析器
func NewDimensionResolver(path string) *DimensionResolver {
	return &DimensionResolver{
		path:  path,
		cache: make(map[string]string),
	}
}

// Display 返回维度的显示名称，映射表中没有时取命名空间后的部分
func (r *DimensionResolver) Display(raw string) string {
	r.mutex.RLock()
	name, ok := r.cache[raw]
	r.mutex.RUnlock()
	if ok {
		return name
	}

	// 未命中时重新读取映射文件，外部修改无需重启即可生效
	table := r.loadTable()
	name, ok = table[raw]
	if !ok {
		name = FallbackDimensionName(raw)
	}

	r.mutex.Lock()
	// 并发首次查询时保留先写入的结果，保证同一标识始终返回相同名称
	if existing, ok := r.cache[raw]; ok {
		name = existing
	} else {
		r.cache[raw] = name
	}
	r.mutex.Unlock()
	return name
}

func (r *DimensionResolver) loadTable() map[string]string {
	if r.path == "" {
		return nil
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("读取维度映射文件失败: %v", err)
		}
		return nil
	}
	var table map[string]string
	if err := sonic.Unmarshal(raw, &table); err != nil {
		logger.Warnf("维度映射文件格式错误: %v", err)
		return nil
	}
	return table
}

// FallbackDimensionName 取最后一个冒号之后的部分作为显示名称
func FallbackDimensionName(raw string) string {
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}
