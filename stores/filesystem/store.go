// Package filesystem 把每个文档保存为 basePath 下的一个 JSON 文件。
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/document"
)

const ext = ".json"

type fsStore struct {
	basePath string
}

// NewStore 创建基于目录的存储，目录不存在时自动创建。
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) path(id string) (string, error) {
	if err := document.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, id+ext), nil
}

func (s *fsStore) List(ctx context.Context) ([]document.Meta, error) {
	log := logrus.WithField("path", s.basePath)
	files, err := os.ReadDir(s.basePath)
	if err != nil {
		log.WithError(err).Error("Failed to read storage directory")
		return nil, err
	}

	out := make([]document.Meta, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ext) {
			continue
		}
		d, err := s.Get(ctx, strings.TrimSuffix(file.Name(), ext))
		if err != nil {
			log.WithError(err).Warnf("Failed to read document file %s, skipping", file.Name())
			continue
		}
		out = append(out, document.MetaOf(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (document.Document, error) {
	p, err := s.path(id)
	if err != nil {
		return document.Document{}, err
	}
	log := logrus.WithFields(logrus.Fields{"document_id": id, "path": p})

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("document file not found")
		return document.Document{}, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	if err != nil {
		log.WithError(err).Error("Failed to read document file")
		return document.Document{}, err
	}
	d, err := document.Decode(data)
	if err != nil {
		log.WithError(err).Warn("document file is corrupt")
		return document.Document{}, err
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

func (s *fsStore) Save(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	p, err := s.path(d.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"document_id": d.ID, "path": p})

	now := time.Now().UTC()
	if prev, err := s.Get(ctx, d.ID); err == nil && !prev.CreatedAt.IsZero() {
		d.CreatedAt = prev.CreatedAt
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	data, err := document.Encode(*d)
	if err != nil {
		return err
	}
	// 先写临时文件再改名，避免读到写了一半的文档
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.WithError(err).Error("Failed to write document file")
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		log.WithError(err).Error("Failed to replace document file")
		return err
	}
	log.Info("Document saved")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", document.ErrNotFound, id)
		}
		return err
	}
	logrus.WithField("document_id", id).Info("Document deleted")
	return nil
}
