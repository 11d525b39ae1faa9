package mcparse

import (
	"regexp"
	"sort"
	"strings"
)

var (
	playerNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)
	// "There are 0 of a max of 20 players online:" 以及旧版本的 "There are 0/20 players online:"
	noPlayersPattern = regexp.MustCompile(`There are 0\b`)
)

// IsValidPlayerName 判断名称是否符合玩家名规则
func IsValidPlayerName(name string) bool {
	return playerNamePattern.MatchString(name)
}

// ParsePlayerList 从 list 命令的响应中提取在线玩家名（去重，按字典序返回）
func ParsePlayerList(response string) []string {
	if noPlayersPattern.MatchString(response) {
		return []string{}
	}

	section := response
	if i := strings.Index(section, ":"); i >= 0 {
		section = section[i+1:]
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, token := range strings.FieldsFunc(section, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	}) {
		if !IsValidPlayerName(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		names = append(names, token)
	}
	sort.Strings(names)
	return names
}
