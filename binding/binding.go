// Package binding 维护脚本中的名字绑定（元素 ID、页面 ID）与外部数据，并负责 ${path} 插值。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 保存 `as name` 绑定和只读的外部数据。查找时绑定优先。
type Scope struct {
	names map[string]string
	data  any
}

// NewScope 创建作用域；data 通常来自 JSON 解码，可以为 nil。
func NewScope(data any) *Scope {
	return &Scope{names: map[string]string{}, data: data}
}

// Bind 记录名字到 ID 的绑定，重复绑定覆盖旧值。
func (s *Scope) Bind(name, id string) { s.names[name] = id }

// Names 返回所有绑定的副本。
func (s *Scope) Names() map[string]string {
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

// Lookup 解析路径：先查绑定，再按 a.b[0].c 的形式在外部数据中查找。
func (s *Scope) Lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if id, ok := s.names[path]; ok {
		return id, true
	}
	if s.data == nil {
		return nil, false
	}
	return resolvePath(s.data, path)
}

// Interpolate 将文本中的 ${path} 替换为对应的值；无法解析的占位符保持原样。
func (s *Scope) Interpolate(text string) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := s.Lookup(groups[1]); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// Resolve 插值并在仍有未解析的占位符时返回错误。
func (s *Scope) Resolve(text string) (string, error) {
	out := s.Interpolate(text)
	if missing := Unresolved(out); len(missing) > 0 {
		return out, fmt.Errorf("未定义的引用: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Unresolved 返回文本中剩余的占位符路径。
func Unresolved(text string) []string {
	var out []string
	for _, m := range exprPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Interpolate 使用只含外部数据的作用域插值。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return NewScope(data).Interpolate(text)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
