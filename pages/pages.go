// Package pages 提供内存中的页面管理：页面列表、当前页以及每页的元素与画布尺寸。
package pages

import (
	"fmt"
	"slices"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// DefaultCanvasSize 是新页面的默认画布尺寸。
var DefaultCanvasSize = geom.Size{Width: 1080, Height: 1080}

// Page 是一页画布。Elements 的顺序即层级顺序（越靠后越在上层）。
type Page struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	CanvasSize geom.Size         `json:"canvasSize"`
	Elements   []element.Element `json:"elements"`
}

// Clone 深拷贝页面。
func (p Page) Clone() Page {
	out := p
	out.Elements = make([]element.Element, len(p.Elements))
	for i, e := range p.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}

// Manager 是编辑器 PageManager 的参考实现。
type Manager struct {
	pages   []*Page
	current string
}

// NewManager 创建包含一个空白页面的管理器。
func NewManager(size geom.Size) *Manager {
	m := &Manager{}
	m.AddPage("", size)
	return m
}

// FromPages 使用已有页面构建管理器（例如从文档加载），第一页为当前页。
func FromPages(pages []Page) *Manager {
	m := &Manager{}
	for _, p := range pages {
		cp := p.Clone()
		if cp.ID == "" {
			cp.ID = ulid.Make().String()
		}
		m.pages = append(m.pages, &cp)
	}
	if len(m.pages) == 0 {
		m.AddPage("", DefaultCanvasSize)
	}
	m.current = m.pages[0].ID
	return m
}

// AddPage 追加页面并切换到该页，返回新页面 ID。
func (m *Manager) AddPage(name string, size geom.Size) string {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultCanvasSize
	}
	p := &Page{ID: ulid.Make().String(), Name: name, CanvasSize: size}
	m.pages = append(m.pages, p)
	m.current = p.ID
	logrus.WithField("page_id", p.ID).Debug("page added")
	return p.ID
}

// SwitchTo 切换当前页。
func (m *Manager) SwitchTo(id string) error {
	if m.find(id) == nil {
		return fmt.Errorf("页面 %s 不存在", id)
	}
	m.current = id
	return nil
}

// RemovePage 删除页面；至少保留一页。
func (m *Manager) RemovePage(id string) error {
	if len(m.pages) <= 1 {
		return fmt.Errorf("至少需要保留一个页面")
	}
	i := slices.IndexFunc(m.pages, func(p *Page) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("页面 %s 不存在", id)
	}
	m.pages = slices.Delete(m.pages, i, i+1)
	if m.current == id {
		m.current = m.pages[min(i, len(m.pages)-1)].ID
	}
	return nil
}

// CurrentPageID 返回当前页 ID。
func (m *Manager) CurrentPageID() string { return m.current }

// Page 返回页面的深拷贝。
func (m *Manager) Page(id string) (Page, bool) {
	p := m.find(id)
	if p == nil {
		return Page{}, false
	}
	return p.Clone(), true
}

// Pages 返回全部页面的深拷贝。
func (m *Manager) Pages() []Page {
	out := make([]Page, len(m.pages))
	for i, p := range m.pages {
		out[i] = p.Clone()
	}
	return out
}

// UpdatePageElements 替换页面的元素列表。
func (m *Manager) UpdatePageElements(id string, elements []element.Element) {
	p := m.find(id)
	if p == nil {
		logrus.WithField("page_id", id).Debug("update elements ignored, page not found")
		return
	}
	p.Elements = elements
}

// UpdatePageCanvasSize 修改页面画布尺寸。
func (m *Manager) UpdatePageCanvasSize(id string, size geom.Size) {
	p := m.find(id)
	if p == nil {
		logrus.WithField("page_id", id).Debug("update canvas ignored, page not found")
		return
	}
	p.CanvasSize = size
}

func (m *Manager) find(id string) *Page {
	for _, p := range m.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}
