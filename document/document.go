// Package document 负责画布文档的 JSON 编解码。
// 编码输出扁平的元素结构；解码兼容旧版单页格式和扁平坐标字段，
// 加载后的元素一律 isNew=false、isEditable=false。
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/pages"
)

// Version 是当前写出的文档格式版本。
const Version = 2

// ErrCorrupt 表示数据无法解析为文档，与“文档不存在”等错误区分。
var ErrCorrupt = errors.New("文档数据已损坏")

// Document 是一份持久化的画布文档。
type Document struct {
	ID        string
	Title     string
	Pages     []pages.Page
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New 创建只含一个空白页面的文档。
func New(title string, size geom.Size) Document {
	return Document{Title: title, Pages: pages.NewManager(size).Pages()}
}

// FromManager 从页面管理器生成文档快照。
func FromManager(id, title string, pm *pages.Manager) Document {
	return Document{ID: id, Title: title, Pages: pm.Pages()}
}

// Manager 用文档页面构建页面管理器。
func (d Document) Manager() *pages.Manager { return pages.FromPages(d.Pages) }

// ElementCount 返回所有页面的元素总数。
func (d Document) ElementCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Elements)
	}
	return n
}

type wireDocument struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Version   int        `json:"version"`
	Pages     []wirePage `json:"pages"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type wirePage struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	CanvasSize geom.Size     `json:"canvasSize"`
	Elements   []wireElement `json:"elements"`
}

// wireElement 是元素的扁平外部表示：公共字段加上当前类型的属性字段。
// isNew 与 isEditable 照实写出，加载时统一清除。
type wireElement struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Rect            geom.Rect `json:"rect"`
	IsNew           bool      `json:"isNew"`
	IsEditable      bool      `json:"isEditable"`
	IsLocked        bool      `json:"isLocked,omitempty"`
	ManuallyResized bool      `json:"manuallyResized,omitempty"`

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

	Src *string `json:"src,omitempty"`
	Alt *string `json:"alt,omitempty"`

	Form            *string  `json:"form,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	BorderColor     *string  `json:"borderColor,omitempty"`
	BorderWidth     *float64 `json:"borderWidth,omitempty"`
	Rotation        *float64 `json:"rotation,omitempty"`
}

func toWire(e element.Element) wireElement {
	w := wireElement{
		ID:              e.ID,
		Type:            string(e.Kind),
		Rect:            e.Rect,
		IsNew:           e.IsNew,
		IsEditable:      e.IsEditable,
		IsLocked:        e.IsLocked,
		ManuallyResized: e.ManuallyResized,
	}
	if t := e.Text; t != nil {
		w.Content = &t.Content
		w.FontSize = &t.FontSize
		w.FontFamily = &t.FontFamily
		w.TextAlign = &t.TextAlign
		w.LetterSpacing = &t.LetterSpacing
		w.LineHeight = &t.LineHeight
		w.IsBold = &t.IsBold
		w.IsItalic = &t.IsItalic
		w.IsUnderline = &t.IsUnderline
		w.IsStrikethrough = &t.IsStrikethrough
		w.Color = &t.Color
	}
	if i := e.Image; i != nil {
		w.Src = &i.Src
		w.Alt = &i.Alt
	}
	if s := e.Shape; s != nil {
		form := string(s.Form)
		w.Form = &form
		w.BackgroundColor = &s.BackgroundColor
		w.BorderColor = &s.BorderColor
		w.BorderWidth = &s.BorderWidth
	}
	if l := e.Line; l != nil {
		w.BackgroundColor = &l.BackgroundColor
		w.Rotation = &l.Rotation
	}
	return w
}

// Flatten 返回元素的扁平外部表示，可直接 JSON 编码（用于报告与 HTTP 响应）。
func Flatten(els []element.Element) []any {
	out := make([]any, len(els))
	for i, e := range els {
		out[i] = toWire(e)
	}
	return out
}

// Encode 把文档编码为 JSON。
func Encode(d Document) ([]byte, error) {
	out := wireDocument{ID: d.ID, Title: d.Title, Version: Version, Pages: make([]wirePage, 0, len(d.Pages))}
	if !d.CreatedAt.IsZero() {
		out.CreatedAt = &d.CreatedAt
	}
	if !d.UpdatedAt.IsZero() {
		out.UpdatedAt = &d.UpdatedAt
	}
	for _, p := range d.Pages {
		wp := wirePage{ID: p.ID, Name: p.Name, CanvasSize: p.CanvasSize, Elements: make([]wireElement, 0, len(p.Elements))}
		for _, e := range p.Elements {
			wp.Elements = append(wp.Elements, toWire(e))
		}
		out.Pages = append(out.Pages, wp)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("编码文档失败: %w", err)
	}
	return data, nil
}

// 解码时使用的宽松结构：元素保持原始 map 交给 element.Normalize 处理。
type looseDocument struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Name      string           `json:"name"`
	Version   int              `json:"version"`
	Pages     []loosePage      `json:"pages"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Elements  []map[string]any `json:"elements"` // 旧版单页格式
	Canvas    *geom.Size       `json:"canvasSize"`
}

type loosePage struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	CanvasSize geom.Size        `json:"canvasSize"`
	Elements   []map[string]any `json:"elements"`
}

// Decode 解析 JSON 文档。无法解析时返回包装了 ErrCorrupt 的错误；
// 单个元素不合法时跳过该元素并记录警告。
func Decode(data []byte) (Document, error) {
	var raw looseDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if raw.Pages == nil && raw.Elements == nil {
		return Document{}, fmt.Errorf("%w: 缺少 pages 字段", ErrCorrupt)
	}

	doc := Document{ID: raw.ID, Title: raw.Title, CreatedAt: raw.CreatedAt, UpdatedAt: raw.UpdatedAt}
	if doc.Title == "" {
		doc.Title = raw.Name
	}
	loose := raw.Pages
	if loose == nil {
		p := loosePage{Elements: raw.Elements}
		if raw.Canvas != nil {
			p.CanvasSize = *raw.Canvas
		}
		loose = []loosePage{p}
	}

	seen := map[string]bool{}
	for i, lp := range loose {
		page := pages.Page{ID: lp.ID, Name: lp.Name, CanvasSize: lp.CanvasSize}
		if page.ID == "" {
			page.ID = ulid.Make().String()
		}
		if page.CanvasSize.Width <= 0 || page.CanvasSize.Height <= 0 {
			page.CanvasSize = pages.DefaultCanvasSize
		}
		log := logrus.WithFields(logrus.Fields{"document_id": doc.ID, "page_id": page.ID})
		for j, item := range lp.Elements {
			e, err := element.Normalize(item, "")
			if err != nil {
				log.WithError(err).WithField("index", j).Warn("skipping invalid element")
				continue
			}
			if e.ID == "" || seen[e.ID] {
				e.ID = ulid.Make().String()
			}
			seen[e.ID] = true
			e.IsNew = false
			e.IsEditable = false
			page.Elements = append(page.Elements, e)
		}
		if page.Elements == nil {
			page.Elements = []element.Element{}
		}
		doc.Pages = append(doc.Pages, page)
		log.WithFields(logrus.Fields{"page_index": i, "elements": len(page.Elements)}).Debug("page decoded")
	}
	if len(doc.Pages) == 0 {
		doc.Pages = pages.NewManager(geom.Size{}).Pages()
	}
	return doc, nil
}
