package canvasmeasure

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/vellum/fonts"
	"github.com/ByLCY/vellum/textfit"
)

// Conversion constants between pt and mm. canvas reports glyph advances in mm,
// while a canvas unit is treated as one pt.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Measurer measures text via github.com/tdewolff/canvas font faces.
type Measurer struct {
	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var _ textfit.Measurer = (*Measurer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// New creates a measurer backed by the fonts registry.
func New() *Measurer {
	return &Measurer{fontFamilies: map[string]*fontFamilyEntry{}}
}

// TextWidth 实现 textfit.Measurer：返回单行的原始字形宽度（画布单位）。
func (m *Measurer) TextWidth(line string, f textfit.Font) (float64, error) {
	if f.Size <= 0 {
		return 0, fmt.Errorf("字号必须为正数: %g", f.Size)
	}
	if line == "" {
		return 0, nil
	}
	face, err := m.fontFace(f)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(line) * MmToPt, nil
}

// LineHeight 返回字体自身的行高度量（画布单位），供渲染层定位基线。
func (m *Measurer) LineHeight(f textfit.Font) (float64, error) {
	face, err := m.fontFace(f)
	if err != nil {
		return 0, err
	}
	return face.Metrics().LineHeight * MmToPt, nil
}

func (m *Measurer) fontFace(f textfit.Font) (*canvas.FontFace, error) {
	family, style, err := m.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(f.Size, color.Black, style, canvas.FontNormal), nil
}

func (m *Measurer) ensureFontFamily(f textfit.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	variant := fonts.VariantOf(f.Bold, f.Italic)
	key := fontCacheKey(f.Family, variant)
	m.fontMu.Lock()
	defer m.fontMu.Unlock()

	if entry, ok := m.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := fontStyle(variant)
	familyName := f.Family
	if familyName == "" {
		familyName = fonts.Fallback
	}
	family := canvas.NewFontFamily(familyName)
	data, err := fonts.Load(familyName, variant)
	if err == nil {
		err = family.LoadFont(data, 0, style)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"font_family": familyName,
			"variant":     variant.String(),
		}).WithError(err).Debug("font unavailable, using fallback family")
		fallback, fbErr := m.fallback(variant)
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		m.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: style}
		return fallback, style, nil
	}

	m.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

// fallback 加载回退字体族的全部变体；调用方持有 fontMu。
func (m *Measurer) fallback(variant fonts.Variant) (*canvas.FontFamily, error) {
	if m.fallbackFamily != nil {
		return m.fallbackFamily, nil
	}
	family := canvas.NewFontFamily("vellum-fallback")
	for _, v := range []fonts.Variant{fonts.Regular, fonts.Bold, fonts.Italic, fonts.BoldItalic} {
		data, err := fonts.Load(fonts.Fallback, v)
		if err != nil {
			return nil, err
		}
		if err := family.LoadFont(data, 0, fontStyle(v)); err != nil {
			return nil, fmt.Errorf("加载回退字体(%s)失败: %w", v, err)
		}
	}
	m.fallbackFamily = family
	return family, nil
}

func fontStyle(v fonts.Variant) canvas.FontStyle {
	switch v {
	case fonts.Bold:
		return canvas.FontBold
	case fonts.Italic:
		return canvas.FontRegular | canvas.FontItalic
	case fonts.BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

func fontCacheKey(family string, v fonts.Variant) string {
	return fmt.Sprintf("%s|%s", strings.ToLower(strings.TrimSpace(family)), v)
}
