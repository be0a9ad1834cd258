package document

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
)

// ErrNotFound 表示存储中没有该文档。
var ErrNotFound = errors.New("文档不存在")

// Meta 是列表视图使用的文档摘要，不含页面内容。
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pages     int       `json:"pages"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MetaOf 生成文档摘要。
func MetaOf(d Document) Meta {
	return Meta{
		ID:        d.ID,
		Title:     d.Title,
		Pages:     len(d.Pages),
		Elements:  d.ElementCount(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store 是文档持久化层。
type Store interface {
	// List 返回所有文档的摘要，按 ID 排序。
	List(ctx context.Context) ([]Meta, error)

	// Get 读取文档；不存在时返回 ErrNotFound，数据损坏时返回 ErrCorrupt。
	Get(ctx context.Context, id string) (Document, error)

	// Save 创建或更新文档。ID 为空时分配新 ID；CreatedAt 保留首次保存的时间。
	Save(ctx context.Context, d *Document) error

	// Delete 删除文档；不存在时返回 ErrNotFound。
	Delete(ctx context.Context, id string) error
}

// ValidateID 拒绝可能造成路径穿越的文档 ID。
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || path.Base(id) != id {
		return fmt.Errorf("非法的文档 ID: %q", id)
	}
	return nil
}
