// Package config 读取引擎的可调参数。所有字段都有默认值，配置文件只需写出要覆盖的项。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings 是引擎的全部可调参数。
type Settings struct {
	Snap    SnapSettings    `yaml:"snap"`
	Drag    DragSettings    `yaml:"drag"`
	Resize  ResizeSettings  `yaml:"resize"`
	Text    TextSettings    `yaml:"text"`
	Overlay OverlaySettings `yaml:"overlay"`
	History HistorySettings `yaml:"history"`
	Canvas  CanvasSettings  `yaml:"canvas"`
}

// SnapSettings 控制吸附。
type SnapSettings struct {
	Threshold float64 `yaml:"threshold"` // 画布单位，严格小于才吸附
}

// DragSettings 控制拖动。
type DragSettings struct {
	DeadZone float64 `yaml:"dead_zone"` // 视口像素
}

// ResizeSettings 控制缩放。
type ResizeSettings struct {
	MinDimension       float64       `yaml:"min_dimension"`
	Cooldown           time.Duration `yaml:"cooldown"`
	JustFinishedWindow time.Duration `yaml:"just_finished_window"`
}

// TextSettings 控制文本测量。
type TextSettings struct {
	PixelRatio  float64 `yaml:"pixel_ratio"`
	SurfaceSize float64 `yaml:"surface_size"`
	Measurer    string  `yaml:"measurer"` // "canvas" 或 "heuristic"
}

// OverlaySettings 控制浮层重新定位。
type OverlaySettings struct {
	Debounce time.Duration `yaml:"debounce"`
}

// HistorySettings 控制撤销栈。
type HistorySettings struct {
	Limit int `yaml:"limit"` // <= 0 不限制
}

// CanvasSettings 是新文档的画布默认值。
type CanvasSettings struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Default 返回默认配置。
func Default() *Settings {
	return &Settings{
		Snap: SnapSettings{Threshold: 10},
		Drag: DragSettings{DeadZone: 3},
		Resize: ResizeSettings{
			MinDimension:       10,
			Cooldown:           2 * time.Second,
			JustFinishedWindow: 200 * time.Millisecond,
		},
		Text: TextSettings{
			PixelRatio:  1,
			SurfaceSize: 2000,
			Measurer:    "canvas",
		},
		Overlay: OverlaySettings{Debounce: 50 * time.Millisecond},
		History: HistorySettings{Limit: 200},
		Canvas:  CanvasSettings{Width: 1080, Height: 1080},
	}
}

// Load 读取 YAML 配置文件并覆盖默认值。path 为空或文件不存在时返回默认配置。
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	if err := Parse(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse 把 YAML 内容合并进 s 并校验结果。
func Parse(data []byte, s *Settings) error {
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return s.Validate()
}

// Validate 检查数值范围。
func (s *Settings) Validate() error {
	switch {
	case s.Snap.Threshold < 0:
		return fmt.Errorf("snap.threshold 不能为负数")
	case s.Drag.DeadZone < 0:
		return fmt.Errorf("drag.dead_zone 不能为负数")
	case s.Resize.MinDimension <= 0:
		return fmt.Errorf("resize.min_dimension 必须大于 0")
	case s.Resize.Cooldown < 0 || s.Resize.JustFinishedWindow < 0 || s.Overlay.Debounce < 0:
		return fmt.Errorf("时间窗口不能为负数")
	case s.Text.PixelRatio <= 0:
		return fmt.Errorf("text.pixel_ratio 必须大于 0")
	case s.Text.Measurer != "canvas" && s.Text.Measurer != "heuristic":
		return fmt.Errorf("未知的 text.measurer: %q", s.Text.Measurer)
	case s.Canvas.Width <= 0 || s.Canvas.Height <= 0:
		return fmt.Errorf("canvas 尺寸必须大于 0")
	}
	return nil
}

// Marshal 把配置输出为 YAML。
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
