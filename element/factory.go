package element

import "github.com/ByLCY/vellum/geom"

// 默认属性与默认尺寸。Factory 产出的草稿不带 ID，ID 只由编辑器分配。

const (
	DefaultFontSize   = 24.0
	DefaultFontFamily = "Go"
	DefaultLineHeight = 1.2
	DefaultTextColor  = "#1e1e1e"
)

func defaultText() *TextProps {
	return &TextProps{
		Content:    "Add a heading",
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		TextAlign:  "left",
		LineHeight: DefaultLineHeight,
		Color:      DefaultTextColor,
	}
}

func defaultShape() *ShapeProps {
	return &ShapeProps{Form: FormRectangle, BackgroundColor: "#d9d9d9", BorderColor: "#000000"}
}

func defaultLine() *LineProps {
	return &LineProps{BackgroundColor: "#000000"}
}

func defaultSize(kind Kind) geom.Size {
	switch kind {
	case KindText:
		return geom.Size{Width: 200, Height: 40}
	case KindImage:
		return geom.Size{Width: 300, Height: 200}
	case KindLine, KindArrow:
		return geom.Size{Width: 200, Height: 4}
	default:
		return geom.Size{Width: 100, Height: 100}
	}
}

// Factory 根据画布尺寸生成居中放置的元素草稿。
type Factory struct {
	Canvas geom.Size
}

// Draft 返回 kind 类型的默认元素（IsNew=true，可编辑，未分配 ID）。
func (f Factory) Draft(kind Kind) Element {
	size := defaultSize(kind)
	e := Element{
		Kind:       kind,
		IsNew:      true,
		IsEditable: true,
		Rect: geom.Rect{
			X:      (f.Canvas.Width - size.Width) / 2,
			Y:      (f.Canvas.Height - size.Height) / 2,
			Width:  size.Width,
			Height: size.Height,
		},
	}
	e.EnsureVariant()
	return e
}

// Text 返回一个带内容的文本草稿。
func (f Factory) Text(content string) Element {
	e := f.Draft(KindText)
	e.Text.Content = content
	return e
}

// Shape 返回指定形态的形状草稿；圆形使用正方形外框。
func (f Factory) Shape(form Form) Element {
	e := f.Draft(KindShape)
	e.Shape.Form = form
	return e
}

// Image 返回图片草稿。
func (f Factory) Image(src, alt string) Element {
	e := f.Draft(KindImage)
	e.Image.Src = src
	e.Image.Alt = alt
	return e
}
