package dsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid 标记脚本语义错误（未知命令、参数个数不符、非法数值）。
var ErrInvalid = errors.New("脚本无效")

// Arity 描述命令接受的位置参数个数，Max < 0 表示不限。
type Arity struct {
	Min, Max int
	Usage    string
}

// Commands 列出所有支持的命令。
var Commands = map[string]Arity{
	"page":     {0, 3, `page [name] [width height]`},
	"switch":   {1, 1, `switch <page>`},
	"add":      {1, 1, `add <kind> [key=value ...] [as name]`},
	"select":   {1, -1, `select <id|none> [id ...]`},
	"drag":     {3, 3, `drag <id> <dx> <dy> [steps=n]`},
	"resize":   {4, 4, `resize <id> <dir> <dx> <dy> [aspect=true]`},
	"edit":     {2, 2, `edit <id> "content"`},
	"style":    {1, 1, `style <id> key=value ...`},
	"delete":   {1, 1, `delete <id|selected>`},
	"front":    {1, 1, `front <id>`},
	"forward":  {1, 1, `forward <id>`},
	"backward": {1, 1, `backward <id>`},
	"back":     {1, 1, `back <id>`},
	"canvas":   {2, 2, `canvas <width> <height>`},
	"undo":     {0, 1, `undo [times]`},
	"redo":     {0, 1, `redo [times]`},
	"lock":     {1, 1, `lock <id>`},
	"unlock":   {1, 1, `unlock <id>`},
	"zoom":     {1, 3, `zoom <scale> [originX originY]`},
	"frame":    {0, 0, `frame`},
	"wait":     {1, 1, `wait <duration>`},
	"expect":   {1, 1, `expect <id> key=value ...`},
	"dump":     {0, 1, `dump [label]`},
}

// Validate 检查每条命令的名称与位置参数个数。
func Validate(s *Script) error {
	var errs []error
	for _, c := range s.Commands {
		a, ok := Commands[c.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s: 未知命令 %q", ErrInvalid, c.Pos, c.Name))
			continue
		}
		n := len(c.Positional())
		if n < a.Min || (a.Max >= 0 && n > a.Max) {
			errs = append(errs, fmt.Errorf("%w: %s: 用法 %s", ErrInvalid, c.Pos, a.Usage))
		}
		if c.Bind != "" && c.Name != "add" && c.Name != "page" {
			errs = append(errs, fmt.Errorf("%w: %s: %s 不支持 as 绑定", ErrInvalid, c.Pos, c.Name))
		}
	}
	return errors.Join(errs...)
}

// Positional 返回没有 key 的参数。
func (c *Command) Positional() []*Lexeme {
	var out []*Lexeme
	for _, a := range c.Args {
		if a.Key == "" {
			out = append(out, a.Value)
		}
	}
	return out
}

// Options 按出现顺序返回 key=value 参数，后出现的同名参数覆盖前者。
func (c *Command) Options() map[string]*Lexeme {
	out := map[string]*Lexeme{}
	for _, a := range c.Args {
		if a.Key != "" {
			out[a.Key] = a.Value
		}
	}
	return out
}

// OptionKeys 返回 key=value 参数的键，保持出现顺序。
func (c *Command) OptionKeys() []string {
	var out []string
	for _, a := range c.Args {
		if a.Key != "" {
			out = append(out, a.Key)
		}
	}
	return out
}

// Float 把数字参数解析为 float64，忽略 px 单位。
func (l *Lexeme) Float() (float64, error) {
	if l == nil {
		return 0, fmt.Errorf("%w: 缺少数值", ErrInvalid)
	}
	s := strings.TrimSuffix(strings.TrimSuffix(l.Value, "px"), "x")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q 不是数字", ErrInvalid, l.Pos, l.Raw)
	}
	return f, nil
}

// Int 把数字参数解析为整数。
func (l *Lexeme) Int() (int, error) {
	f, err := l.Float()
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%w: %s: %q 不是整数", ErrInvalid, l.Pos, l.Raw)
	}
	return int(f), nil
}

// Duration 解析时长参数：带 ms/s 单位，或不带单位的毫秒数。
func (l *Lexeme) Duration() (time.Duration, error) {
	if l == nil {
		return 0, fmt.Errorf("%w: 缺少时长", ErrInvalid)
	}
	if d, err := time.ParseDuration(l.Value); err == nil {
		return d, nil
	}
	ms, err := strconv.ParseFloat(l.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q 不是时长", ErrInvalid, l.Pos, l.Raw)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// Bool 解析布尔参数。
func (l *Lexeme) Bool() (bool, error) {
	if l == nil {
		return true, nil
	}
	b, err := strconv.ParseBool(l.Value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q 不是布尔值", ErrInvalid, l.Pos, l.Raw)
	}
	return b, nil
}

// Any 返回适合放入松散元素数据的值：数字转为 float64，布尔值转为 bool，其余保持字符串。
func (l *Lexeme) Any() any {
	switch l.Type {
	case "Number":
		if f, err := l.Float(); err == nil && !strings.HasSuffix(l.Value, "%") {
			return f
		}
	case "Ident":
		if b, err := strconv.ParseBool(l.Value); err == nil {
			return b
		}
	}
	return l.Value
}
