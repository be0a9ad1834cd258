package fonts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Fallback 是找不到字体族时使用的族名。
const Fallback = "Go"

// Variant 表示字体的粗细/倾斜组合。
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

// VariantOf 根据粗体/斜体标记返回字体变体。
func VariantOf(bold, italic bool) Variant {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

func (v Variant) String() string {
	switch v {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

var (
	mu       sync.RWMutex
	registry = map[string]map[Variant][]byte{
		"go": {
			Regular:    goregular.TTF,
			Bold:       gobold.TTF,
			Italic:     goitalic.TTF,
			BoldItalic: gobolditalic.TTF,
		},
		"go mono": {
			Regular:    gomono.TTF,
			Bold:       gomonobold.TTF,
			Italic:     gomonoitalic.TTF,
			BoldItalic: gomonobolditalic.TTF,
		},
	}
)

func key(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}

// Register 注册自定义字体族的某个变体；同名变体后注册者生效。
func Register(family string, v Variant, data []byte) error {
	if key(family) == "" {
		return fmt.Errorf("字体族名称不能为空")
	}
	if len(data) == 0 {
		return fmt.Errorf("字体 %s(%s) 数据为空", family, v)
	}
	mu.Lock()
	defer mu.Unlock()
	variants, ok := registry[key(family)]
	if !ok {
		variants = map[Variant][]byte{}
		registry[key(family)] = variants
	}
	variants[v] = data
	return nil
}

// RegisterFile 从文件读取字体并注册。
func RegisterFile(family string, v Variant, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取字体文件 %s 失败: %w", path, err)
	}
	return Register(family, v, data)
}

// Has 报告字体族是否已注册。
func Has(family string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[key(family)]
	return ok
}

// Load 返回字体族指定变体的字节数据。缺少该变体时退回同族的 Regular。
func Load(family string, v Variant) ([]byte, error) {
	mu.RLock()
	defer mu.RUnlock()
	variants, ok := registry[key(family)]
	if !ok {
		return nil, fmt.Errorf("未注册的字体族 %q", family)
	}
	if data, ok := variants[v]; ok {
		return data, nil
	}
	if data, ok := variants[Regular]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("字体族 %q 缺少 %s 变体", family, v)
}

// Families 返回已注册的字体族名称（小写）。
func Families() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
