package mcparse

import (
	"regexp"
	"strconv"
	"strings"

	"city.newnan/mc-status/internal/logger"
)

// 实体数据（data get entity）中各字段的匹配规则
var (
	posPattern       = regexp.MustCompile(`Pos:\s*\[([\d., dE+-]+)]`)
	dimensionPattern = regexp.MustCompile(`Dimension:\s*"([^"]+)"`)
	healthPattern    = regexp.MustCompile(`Health:\s*([0-9.]+)[fs]`)
	foodPattern      = regexp.MustCompile(`(?:foodLevel|food):\s*(\d+)(?:s|b|)`)
	levelPattern     = regexp.MustCompile(`(?:XpLevel|level):\s*(\d+)(?:s|b|)`)
)

// entityNotFoundPhrases 玩家已离线或实体不存在时服务器返回的文本
var entityNotFoundPhrases = []string{
	"No entity was found",
	"Found no elements matching",
}

// Position 实体坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dimension 维度的原始标识与显示名称，总是成对出现
type Dimension struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}

// Number 保留整数/浮点区别的数值，20s 输出为 20，20.0f 输出为 20.0
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// Value 以 float64 返回数值
func (n Number) Value() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// String 返回数值的文本形式
func (n Number) String() string {
	if !n.IsFloat {
		return strconv.FormatInt(n.Int, 10)
	}
	s := strconv.FormatFloat(n.Float, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalJSON 实现 json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// EntityRecord 解析后的实体快照
// 字段为 nil 表示源文本中没有该字段或无法转换，不会用零值填充
type EntityRecord struct {
	Position  *Position  `json:"pos,omitempty"`
	Dimension *Dimension `json:"dimension,omitempty"`
	Health    *Number    `json:"health,omitempty"`
	Food      *int       `json:"food,omitempty"`
	Level     *int       `json:"level,omitempty"`
}

// ParseEntity 从实体数据响应中逐字段提取信息
// 每个字段独立解析，某个字段出错只会让该字段缺失，不影响其他字段
func ParseEntity(response string, dims DimensionNamer) EntityRecord {
	var record EntityRecord

	record.Position = parsePosition(response)

	if m := dimensionPattern.FindStringSubmatch(response); m != nil {
		raw := m[1]
		display := FallbackDimensionName(raw)
		if dims != nil {
			display = dims.Display(raw)
		}
		record.Dimension = &Dimension{Raw: raw, Display: display}
	}

	if m := healthPattern.FindStringSubmatch(response); m != nil {
		if n, err := parseNumber(m[1]); err == nil {
			record.Health = &n
		} else {
			logger.Warnf("生命值转换失败: %s", m[1])
		}
	}

	record.Food = parseIntField(foodPattern, response, "饱食度")
	record.Level = parseIntField(levelPattern, response, "等级")

	return record
}

func parsePosition(response string) *Position {
	m := posPattern.FindStringSubmatch(response)
	if m == nil {
		return nil
	}
	posStr := strings.TrimSpace(strings.ReplaceAll(m[1], "d", ""))
	parts := strings.Split(posStr, ", ")
	if len(parts) != 3 {
		logger.Warnf("坐标格式错误: %s", posStr)
		return nil
	}
	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			logger.Warnf("坐标格式错误: %s", posStr)
			return nil
		}
		coords[i] = v
	}
	return &Position{X: coords[0], Y: coords[1], Z: coords[2]}
}

func parseNumber(text string) (Number, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Number{}, err
		}
		return Number{Float: f, IsFloat: true}, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Number{}, err
	}
	return Number{Int: i}, nil
}

func parseIntField(pattern *regexp.Regexp, response, name string) *int {
	m := pattern.FindStringSubmatch(response)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		logger.Warnf("%s转换失败: %s", name, m[1])
		return nil
	}
	return &v
}

// IsEntityNotFound 判断响应是否表示实体不存在
func IsEntityNotFound(response string) bool {
	for _, phrase := range entityNotFoundPhrases {
		if strings.Contains(response, phrase) {
			return true
		}
	}
	return false
}
