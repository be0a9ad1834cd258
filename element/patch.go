package element

import "github.com/ByLCY/vellum/geom"

// Patch 描述对元素的部分更新：非 nil 的字段即“被触及”的字段。
// 变体字段只作用于对应 Kind 的元素，对其他类型静默忽略。
type Patch struct {
	Rect            *geom.Rect `json:"rect,omitempty"`
	IsNew           *bool      `json:"isNew,omitempty"`
	IsLocked        *bool      `json:"isLocked,omitempty"`
	IsEditable      *bool      `json:"isEditable,omitempty"`
	ManuallyResized *bool      `json:"manuallyResized,omitempty"`

	// text
	Content         *string  `json:"content,omitempty"`
	FontSize        *float64 `json:"fontSize,omitempty"`
	FontFamily      *string  `json:"fontFamily,omitempty"`
	TextAlign       *string  `json:"textAlign,omitempty"`
	LetterSpacing   *float64 `json:"letterSpacing,omitempty"`
	LineHeight      *float64 `json:"lineHeight,omitempty"`
	IsBold          *bool    `json:"isBold,omitempty"`
	IsItalic        *bool    `json:"isItalic,omitempty"`
	IsUnderline     *bool    `json:"isUnderline,omitempty"`
	IsStrikethrough *bool    `json:"isStrikethrough,omitempty"`
	Color           *string  `json:"color,omitempty"`

	// image
	Src *string `json:"src,omitempty"`
	Alt *string `json:"alt,omitempty"`

	// shape / line / arrow
	Form            *Form    `json:"form,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	BorderColor     *string  `json:"borderColor,omitempty"`
	BorderWidth     *float64 `json:"borderWidth,omitempty"`
	Rotation        *float64 `json:"rotation,omitempty"`
}

// Ptr 返回 v 的指针，便于构造 Patch 字面量。
func Ptr[T any](v T) *T { return &v }

// IsEmpty 报告补丁是否未触及任何字段。
func (p Patch) IsEmpty() bool { return p == Patch{} }

// TouchesStyle 报告补丁是否修改了影响文本测量的字段。
func (p Patch) TouchesStyle() bool {
	return p.FontSize != nil || p.FontFamily != nil || p.LetterSpacing != nil ||
		p.LineHeight != nil || p.IsBold != nil || p.IsItalic != nil ||
		p.TextAlign != nil || p.IsUnderline != nil || p.IsStrikethrough != nil
}

// Merge 返回 p 与 o 的合并结果，o 中触及的字段覆盖 p。
func (p Patch) Merge(o Patch) Patch {
	out := p
	mergeField(&out.Rect, o.Rect)
	mergeField(&out.IsNew, o.IsNew)
	mergeField(&out.IsLocked, o.IsLocked)
	mergeField(&out.IsEditable, o.IsEditable)
	mergeField(&out.ManuallyResized, o.ManuallyResized)
	mergeField(&out.Content, o.Content)
	mergeField(&out.FontSize, o.FontSize)
	mergeField(&out.FontFamily, o.FontFamily)
	mergeField(&out.TextAlign, o.TextAlign)
	mergeField(&out.LetterSpacing, o.LetterSpacing)
	mergeField(&out.LineHeight, o.LineHeight)
	mergeField(&out.IsBold, o.IsBold)
	mergeField(&out.IsItalic, o.IsItalic)
	mergeField(&out.IsUnderline, o.IsUnderline)
	mergeField(&out.IsStrikethrough, o.IsStrikethrough)
	mergeField(&out.Color, o.Color)
	mergeField(&out.Src, o.Src)
	mergeField(&out.Alt, o.Alt)
	mergeField(&out.Form, o.Form)
	mergeField(&out.BackgroundColor, o.BackgroundColor)
	mergeField(&out.BorderColor, o.BorderColor)
	mergeField(&out.BorderWidth, o.BorderWidth)
	mergeField(&out.Rotation, o.Rotation)
	return out
}

func mergeField[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Apply 将补丁应用到元素副本上并返回结果，原元素不变。
func (p Patch) Apply(e Element) Element {
	out := e.Clone()
	set(&out.Rect, p.Rect)
	set(&out.IsNew, p.IsNew)
	set(&out.IsLocked, p.IsLocked)
	set(&out.IsEditable, p.IsEditable)
	set(&out.ManuallyResized, p.ManuallyResized)
	if t := out.Text; t != nil {
		set(&t.Content, p.Content)
		set(&t.FontSize, p.FontSize)
		set(&t.FontFamily, p.FontFamily)
		set(&t.TextAlign, p.TextAlign)
		set(&t.LetterSpacing, p.LetterSpacing)
		set(&t.LineHeight, p.LineHeight)
		set(&t.IsBold, p.IsBold)
		set(&t.IsItalic, p.IsItalic)
		set(&t.IsUnderline, p.IsUnderline)
		set(&t.IsStrikethrough, p.IsStrikethrough)
		set(&t.Color, p.Color)
	}
	if i := out.Image; i != nil {
		set(&i.Src, p.Src)
		set(&i.Alt, p.Alt)
	}
	if s := out.Shape; s != nil {
		set(&s.Form, p.Form)
		set(&s.BackgroundColor, p.BackgroundColor)
		set(&s.BorderColor, p.BorderColor)
		set(&s.BorderWidth, p.BorderWidth)
	}
	if l := out.Line; l != nil {
		set(&l.BackgroundColor, p.BackgroundColor)
		set(&l.Rotation, p.Rotation)
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Capture 返回 p 的精确逆补丁：只包含 p 触及且对 e 有意义的字段，取值为 e 的当前值。
// 先 Apply(p) 再 Apply(Capture(e, p)) 可逐字段还原 e。
func Capture(e Element, p Patch) Patch {
	var out Patch
	capture(&out.Rect, p.Rect, e.Rect)
	capture(&out.IsNew, p.IsNew, e.IsNew)
	capture(&out.IsLocked, p.IsLocked, e.IsLocked)
	capture(&out.IsEditable, p.IsEditable, e.IsEditable)
	capture(&out.ManuallyResized, p.ManuallyResized, e.ManuallyResized)
	if t := e.Text; t != nil {
		capture(&out.Content, p.Content, t.Content)
		capture(&out.FontSize, p.FontSize, t.FontSize)
		capture(&out.FontFamily, p.FontFamily, t.FontFamily)
		capture(&out.TextAlign, p.TextAlign, t.TextAlign)
		capture(&out.LetterSpacing, p.LetterSpacing, t.LetterSpacing)
		capture(&out.LineHeight, p.LineHeight, t.LineHeight)
		capture(&out.IsBold, p.IsBold, t.IsBold)
		capture(&out.IsItalic, p.IsItalic, t.IsItalic)
		capture(&out.IsUnderline, p.IsUnderline, t.IsUnderline)
		capture(&out.IsStrikethrough, p.IsStrikethrough, t.IsStrikethrough)
		capture(&out.Color, p.Color, t.Color)
	}
	if i := e.Image; i != nil {
		capture(&out.Src, p.Src, i.Src)
		capture(&out.Alt, p.Alt, i.Alt)
	}
	if s := e.Shape; s != nil {
		capture(&out.Form, p.Form, s.Form)
		capture(&out.BackgroundColor, p.BackgroundColor, s.BackgroundColor)
		capture(&out.BorderColor, p.BorderColor, s.BorderColor)
		capture(&out.BorderWidth, p.BorderWidth, s.BorderWidth)
	}
	if l := e.Line; l != nil {
		capture(&out.BackgroundColor, p.BackgroundColor, l.BackgroundColor)
		capture(&out.Rotation, p.Rotation, l.Rotation)
	}
	return out
}

func capture[T any](dst **T, touched *T, current T) {
	if touched != nil {
		v := current
		*dst = &v
	}
}

// Restrict 返回仅保留对 e 有意义字段的补丁（Capture 的字段集合），取值来自 p。
func Restrict(e Element, p Patch) Patch {
	return Capture(p.Apply(e), p)
}

// Diff 返回把 a 变为 b 所需的最小补丁：只包含取值不同的字段，取值来自 b。
// 两者的 Kind 必须相同；ID 不参与比较。
func Diff(a, b Element) Patch {
	var p Patch
	diff(&p.Rect, a.Rect, b.Rect)
	diff(&p.IsNew, a.IsNew, b.IsNew)
	diff(&p.IsLocked, a.IsLocked, b.IsLocked)
	diff(&p.IsEditable, a.IsEditable, b.IsEditable)
	diff(&p.ManuallyResized, a.ManuallyResized, b.ManuallyResized)
	if x, y := a.Text, b.Text; x != nil && y != nil {
		diff(&p.Content, x.Content, y.Content)
		diff(&p.FontSize, x.FontSize, y.FontSize)
		diff(&p.FontFamily, x.FontFamily, y.FontFamily)
		diff(&p.TextAlign, x.TextAlign, y.TextAlign)
		diff(&p.LetterSpacing, x.LetterSpacing, y.LetterSpacing)
		diff(&p.LineHeight, x.LineHeight, y.LineHeight)
		diff(&p.IsBold, x.IsBold, y.IsBold)
		diff(&p.IsItalic, x.IsItalic, y.IsItalic)
		diff(&p.IsUnderline, x.IsUnderline, y.IsUnderline)
		diff(&p.IsStrikethrough, x.IsStrikethrough, y.IsStrikethrough)
		diff(&p.Color, x.Color, y.Color)
	}
	if x, y := a.Image, b.Image; x != nil && y != nil {
		diff(&p.Src, x.Src, y.Src)
		diff(&p.Alt, x.Alt, y.Alt)
	}
	if x, y := a.Shape, b.Shape; x != nil && y != nil {
		diff(&p.Form, x.Form, y.Form)
		diff(&p.BackgroundColor, x.BackgroundColor, y.BackgroundColor)
		diff(&p.BorderColor, x.BorderColor, y.BorderColor)
		diff(&p.BorderWidth, x.BorderWidth, y.BorderWidth)
	}
	if x, y := a.Line, b.Line; x != nil && y != nil {
		diff(&p.BackgroundColor, x.BackgroundColor, y.BackgroundColor)
		diff(&p.Rotation, x.Rotation, y.Rotation)
	}
	return p
}

func diff[T comparable](dst **T, a, b T) {
	if a != b {
		v := b
		*dst = &v
	}
}
