package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/interact"
	"github.com/ByLCY/vellum/overlay"
)

// expect 比较几何字段时允许的误差（画布单位）。
const tolerance = 0.01

func (s *Session) exec(ctx context.Context, c *dsl.Command, step *Step) error {
	pos := c.Positional()
	switch c.Name {
	case "page":
		return s.execPage(c, pos, step)
	case "switch":
		id, err := s.id(pos[0])
		if err != nil {
			return err
		}
		if err := s.pages.SwitchTo(id); err != nil {
			return err
		}
		s.editor.ClearSelection()
		s.overlay.Update()
		step.Result = id
	case "add":
		return s.execAdd(c, pos[0], step)
	case "select":
		return s.execSelect(pos, step)
	case "drag":
		return s.execDrag(c, pos, step)
	case "resize":
		return s.execResize(c, pos, step)
	case "edit":
		id, err := s.element(pos[0], element.KindText)
		if err != nil {
			return err
		}
		content, err := s.text(pos[1])
		if err != nil {
			return err
		}
		s.editor.EditText(id, content)
	case "style":
		return s.execStyle(c, pos[0])
	case "delete":
		if pos[0].Type == "Ident" && pos[0].Value == "selected" {
			step.Result = strings.Join(s.editor.SelectedIDs(), ",")
			s.editor.DeleteSelectedElements()
			return nil
		}
		id, err := s.element(pos[0], "")
		if err != nil {
			return err
		}
		s.editor.DeleteElement(id)
	case "front", "forward", "backward", "back":
		id, err := s.element(pos[0], "")
		if err != nil {
			return err
		}
		map[string]func(string){
			"front":    s.editor.BringElementToFront,
			"forward":  s.editor.BringElementForward,
			"backward": s.editor.SendElementBackward,
			"back":     s.editor.SendElementToBack,
		}[c.Name](id)
	case "canvas":
		w, err := s.number(pos[0])
		if err != nil {
			return err
		}
		h, err := s.number(pos[1])
		if err != nil {
			return err
		}
		if w <= 0 || h <= 0 {
			return fmt.Errorf("%w: 画布尺寸必须为正数", dsl.ErrInvalid)
		}
		s.editor.ChangeCanvasSize(geom.Size{Width: w, Height: h})
	case "undo", "redo":
		n := 1
		if len(pos) == 1 {
			v, err := pos[0].Int()
			if err != nil {
				return err
			}
			n = v
		}
		for range n {
			if c.Name == "undo" {
				s.editor.Undo()
			} else {
				s.editor.Redo()
			}
		}
	case "lock", "unlock":
		id, err := s.element(pos[0], "")
		if err != nil {
			return err
		}
		s.editor.SetLocked(id, c.Name == "lock")
	case "zoom":
		return s.execZoom(pos)
	case "frame":
		step.Result = strconv.Itoa(s.scheduler.Flush())
	case "wait":
		d, err := pos[0].Duration()
		if err != nil {
			return err
		}
		s.clock.Advance(d)
		s.scheduler.Flush()
		var done []string
		if s.overlay.Tick() {
			done = append(done, "overlay")
		}
		if s.autosaver != nil {
			saved, err := s.autosaver.Tick(ctx)
			if err != nil {
				return err
			}
			if saved {
				s.adoptSavedID()
				done = append(done, "autosave")
			}
		}
		step.Result = strings.Join(done, ",")
	case "expect":
		return s.execExpect(c, pos[0])
	case "dump":
		if len(pos) == 1 {
			label, err := s.text(pos[0])
			if err != nil {
				return err
			}
			step.Result = label
		}
		step.Elements = document.Flatten(s.editor.Elements())
	default:
		return fmt.Errorf("%w: 未知命令 %q", dsl.ErrInvalid, c.Name)
	}
	return nil
}

func (s *Session) execPage(c *dsl.Command, pos []*dsl.Lexeme, step *Step) error {
	name := ""
	size := geom.Size{Width: s.settings.Canvas.Width, Height: s.settings.Canvas.Height}
	sizeArgs := pos
	if len(pos) == 1 || len(pos) == 3 {
		n, err := s.text(pos[0])
		if err != nil {
			return err
		}
		name = n
		sizeArgs = pos[1:]
	}
	if len(sizeArgs) == 2 {
		w, err := s.number(sizeArgs[0])
		if err != nil {
			return err
		}
		h, err := s.number(sizeArgs[1])
		if err != nil {
			return err
		}
		size = geom.Size{Width: w, Height: h}
	}
	id := s.pages.AddPage(name, size)
	s.pagesTouched()
	s.editor.ClearSelection()
	s.overlay.Update()
	if c.Bind != "" {
		s.scope.Bind(c.Bind, id)
	}
	step.Result = id
	return nil
}

// execAdd 新建元素：未给出坐标时居中；未给出宽度的文本框按内容自动适配尺寸。
func (s *Session) execAdd(c *dsl.Command, kindArg *dsl.Lexeme, step *Step) error {
	raw, err := s.text(kindArg)
	if err != nil {
		return err
	}
	kind, err := element.ParseKind(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", dsl.ErrInvalid, err)
	}
	values, err := s.values(c)
	if err != nil {
		return err
	}
	if _, ok := values["form"]; !ok && kind == element.KindShape && raw != "shape" {
		values["form"] = raw
	}
	el, err := element.Normalize(values, kind)
	if err != nil {
		return fmt.Errorf("%w: %v", dsl.ErrInvalid, err)
	}
	if el.Kind == element.KindText {
		if _, ok := values["width"]; !ok {
			if p := s.editor.Fitter().OnContentChange(el, el.Text.Content); p.Rect != nil {
				el.Rect.Width, el.Rect.Height = p.Rect.Width, p.Rect.Height
			}
		}
	}
	canvas := s.editor.CanvasSize()
	if _, ok := values["x"]; !ok {
		el.Rect.X = (canvas.Width - el.Rect.Width) / 2
	}
	if _, ok := values["y"]; !ok {
		el.Rect.Y = (canvas.Height - el.Rect.Height) / 2
	}
	el.IsNew = true
	el.IsEditable = true

	id := s.editor.Add(el)
	if id == "" {
		return fmt.Errorf("%w: 当前没有页面", ErrRejected)
	}
	if c.Bind != "" {
		s.scope.Bind(c.Bind, id)
	}
	step.Result = id
	return nil
}

func (s *Session) execSelect(pos []*dsl.Lexeme, step *Step) error {
	if pos[0].Type == "Ident" && pos[0].Value == "none" {
		s.editor.SelectCanvas()
		step.Result = s.editor.SelectionMode()
		return nil
	}
	for i, l := range pos {
		id, err := s.element(l, "")
		if err != nil {
			return err
		}
		s.editor.SelectElement(id, i > 0)
	}
	step.Result = s.editor.SelectionMode()
	return nil
}

// execDrag 在元素中心按下，按 steps 把屏幕位移分段移动，每段一帧，最后松开。
func (s *Session) execDrag(c *dsl.Command, pos []*dsl.Lexeme, step *Step) error {
	id, err := s.element(pos[0], "")
	if err != nil {
		return err
	}
	delta, err := s.delta(pos[1], pos[2])
	if err != nil {
		return err
	}
	steps, err := s.steps(c)
	if err != nil {
		return err
	}
	el, _ := s.editor.Element(id)
	if !s.editor.IsSelected(id) {
		s.editor.SelectElement(id, false)
	}
	start := geom.PointToViewport(el.Rect.Center(), s.viewport.Origin, s.viewport.Scale)
	if !s.drag.Press(id, start, s.viewport) {
		return fmt.Errorf("%w: 无法拖动 %s", ErrRejected, id)
	}
	for i := 1; i <= steps; i++ {
		s.drag.Move(start.Add(delta.Scale(float64(i) / float64(steps))))
		s.scheduler.Flush()
	}
	if g := s.drag.Guides(); !g.Empty() {
		step.Guides = &g
	}
	if s.drag.Release(start.Add(delta)) {
		step.Result = "click"
		return nil
	}
	after, _ := s.editor.Element(id)
	step.Result = fmt.Sprintf("%g,%g", after.Rect.X, after.Rect.Y)
	return nil
}

// execResize 在指定手柄上按下并移动，aspect=true 相当于按住等比修饰键。
func (s *Session) execResize(c *dsl.Command, pos []*dsl.Lexeme, step *Step) error {
	id, err := s.element(pos[0], "")
	if err != nil {
		return err
	}
	dirText, err := s.text(pos[1])
	if err != nil {
		return err
	}
	dir, ok := interact.ParseDirection(dirText)
	if !ok {
		return fmt.Errorf("%w: 未知的手柄方向 %q", dsl.ErrInvalid, dirText)
	}
	delta, err := s.delta(pos[2], pos[3])
	if err != nil {
		return err
	}
	steps, err := s.steps(c)
	if err != nil {
		return err
	}
	keep := false
	if l, ok := c.Options()["aspect"]; ok {
		if keep, err = l.Bool(); err != nil {
			return err
		}
	}
	el, _ := s.editor.Element(id)
	s.editor.SelectElement(id, false)
	layout := overlay.Compute([]element.Element{el}, s.viewport, s.window, overlay.DefaultOptions())
	var handle *overlay.Handle
	for i := range layout.Handles {
		if layout.Handles[i].Direction == dir {
			handle = &layout.Handles[i]
		}
	}
	if handle == nil || !s.resize.Press(id, dir, handle.Center, s.viewport) {
		return fmt.Errorf("%w: 无法从 %s 手柄缩放 %s", ErrRejected, dir, id)
	}
	for i := 1; i <= steps; i++ {
		s.resize.Move(handle.Center.Add(delta.Scale(float64(i)/float64(steps))), keep)
		s.scheduler.Flush()
	}
	s.resize.Release(handle.Center.Add(delta))
	after, _ := s.editor.Element(id)
	step.Result = fmt.Sprintf("%gx%g", after.Rect.Width, after.Rect.Height)
	return nil
}

func (s *Session) execStyle(c *dsl.Command, target *dsl.Lexeme) error {
	id, err := s.element(target, "")
	if err != nil {
		return err
	}
	values, err := s.values(c)
	if err != nil {
		return err
	}
	el, _ := s.editor.Element(id)
	p, err := element.PatchFromValues(el, values)
	if err != nil {
		return fmt.Errorf("%w: %v", dsl.ErrInvalid, err)
	}
	if el.Kind == element.KindText && p.Rect == nil {
		s.editor.SetTextStyle(id, p)
		return nil
	}
	s.editor.UpdateElement(id, p)
	return nil
}

func (s *Session) execZoom(pos []*dsl.Lexeme) error {
	scale, err := s.number(pos[0])
	if err != nil {
		return err
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: 缩放比例必须为正数", dsl.ErrInvalid)
	}
	origin := s.viewport.Origin
	if len(pos) == 3 {
		if origin.X, err = s.number(pos[1]); err != nil {
			return err
		}
		if origin.Y, err = s.number(pos[2]); err != nil {
			return err
		}
	}
	s.SetViewport(geom.NewViewport(origin, scale))
	return nil
}

// execExpect 校验元素状态。除元素属性外还支持 exists、selected、index 三个特殊键。
func (s *Session) execExpect(c *dsl.Command, target *dsl.Lexeme) error {
	id, err := s.id(target)
	if err != nil {
		return err
	}
	values, err := s.values(c)
	if err != nil {
		return err
	}
	el, found := s.editor.Element(id)
	if v, ok := values["exists"]; ok {
		delete(values, "exists")
		if want, _ := v.(bool); want != found {
			return fmt.Errorf("%w: %s exists=%t", ErrExpectation, id, found)
		}
	}
	if !found {
		if len(values) == 0 {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}

	var failures []string
	if v, ok := values["selected"]; ok {
		delete(values, "selected")
		if want, _ := v.(bool); want != s.editor.IsSelected(id) {
			failures = append(failures, fmt.Sprintf("selected=%t", s.editor.IsSelected(id)))
		}
	}
	if v, ok := values["index"]; ok {
		delete(values, "index")
		idx := indexOf(s.editor.Elements(), id)
		if want, ok := v.(float64); !ok || int(want) != idx {
			failures = append(failures, fmt.Sprintf("index=%d", idx))
		}
	}
	for _, key := range c.OptionKeys() {
		v, ok := values[key]
		if !ok {
			continue
		}
		p, err := element.PatchFromValues(el, map[string]any{key: v})
		if err != nil {
			return fmt.Errorf("%w: %v", dsl.ErrInvalid, err)
		}
		want := p.Apply(el)
		if geom.ApproxEqual(want.Rect, el.Rect, tolerance) {
			want.Rect = el.Rect
		}
		if !element.Equal(want, el) {
			failures = append(failures, fmt.Sprintf("%s=%v", key, actual(el, key)))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %s 实际为 %s", ErrExpectation, id, strings.Join(failures, " "))
	}
	return nil
}

// actual 返回元素某个属性的当前值，用于断言失败信息。
func actual(el element.Element, key string) any {
	switch key {
	case "x":
		return el.Rect.X
	case "y":
		return el.Rect.Y
	case "width":
		return el.Rect.Width
	case "height":
		return el.Rect.Height
	}
	data, err := json.Marshal(document.Flatten([]element.Element{el})[0])
	if err != nil {
		return "?"
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "?"
	}
	if v, ok := m[key]; ok {
		return v
	}
	return "?"
}

func indexOf(els []element.Element, id string) int {
	for i, e := range els {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// text 返回参数的字符串值；引用与字符串中的 ${path} 会被解析。
func (s *Session) text(l *dsl.Lexeme) (string, error) {
	switch l.Type {
	case "Ref", "String":
		return s.scope.Resolve(l.Value)
	}
	return l.Value, nil
}

// id 解析元素或页面引用：${name}、已绑定的名字，或原样的 ID。
func (s *Session) id(l *dsl.Lexeme) (string, error) {
	v, err := s.text(l)
	if err != nil {
		return "", err
	}
	if l.Type == "Ident" {
		if bound, ok := s.scope.Names()[v]; ok {
			return bound, nil
		}
	}
	return v, nil
}

// element 解析引用并确认元素在当前页；kind 非空时同时检查类型。
func (s *Session) element(l *dsl.Lexeme, kind element.Kind) (string, error) {
	id, err := s.id(l)
	if err != nil {
		return "", err
	}
	el, ok := s.editor.Element(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	if kind != "" && el.Kind != kind {
		return "", fmt.Errorf("%w: %s 不是 %s 元素", dsl.ErrInvalid, id, kind)
	}
	return id, nil
}

func (s *Session) number(l *dsl.Lexeme) (float64, error) {
	if l.Type != "Ref" {
		return l.Float()
	}
	v, err := s.text(l)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q 不是数字", dsl.ErrInvalid, l.Pos, v)
	}
	return f, nil
}

func (s *Session) delta(dx, dy *dsl.Lexeme) (geom.Point, error) {
	x, err := s.number(dx)
	if err != nil {
		return geom.Point{}, err
	}
	y, err := s.number(dy)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}

func (s *Session) steps(c *dsl.Command) (int, error) {
	l, ok := c.Options()["steps"]
	if !ok {
		return 1, nil
	}
	n, err := l.Int()
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: steps 必须 >= 1", dsl.ErrInvalid)
	}
	return n, nil
}

// values 把 key=value 选项转换为松散数据，steps/aspect 等控制选项除外。
func (s *Session) values(c *dsl.Command) (map[string]any, error) {
	out := map[string]any{}
	for key, l := range c.Options() {
		switch key {
		case "steps", "aspect":
			continue
		}
		switch l.Type {
		case "Ref", "String":
			v, err := s.scope.Resolve(l.Value)
			if err != nil {
				return nil, err
			}
			out[key] = v
		default:
			out[key] = l.Any()
		}
	}
	return out, nil
}
