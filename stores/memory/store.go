// Package memory 提供进程内的文档存储，主要用于测试和临时会话。
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/document"
)

type memStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewStore 创建空的内存存储。
func NewStore() *memStore {
	return &memStore{docs: map[string][]byte{}}
}

func (s *memStore) List(ctx context.Context) ([]document.Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]document.Meta, 0, len(s.docs))
	for id, data := range s.docs {
		d, err := document.Decode(data)
		if err != nil {
			logrus.WithField("document_id", id).WithError(err).Warn("skipping unreadable document")
			continue
		}
		out = append(out, document.MetaOf(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("document_id", id)
	data, ok := s.docs[id]
	if !ok {
		log.Debug("document not found")
		return document.Document{}, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	d, err := document.Decode(data)
	if err != nil {
		return document.Document{}, err
	}
	log.Debug("document retrieved")
	return d, nil
}

func (s *memStore) Save(ctx context.Context, d *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	now := time.Now().UTC()
	if old, ok := s.docs[d.ID]; ok {
		if prev, err := document.Decode(old); err == nil && !prev.CreatedAt.IsZero() {
			d.CreatedAt = prev.CreatedAt
		}
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	data, err := document.Encode(*d)
	if err != nil {
		return err
	}
	s.docs[d.ID] = data
	logrus.WithFields(logrus.Fields{"document_id": d.ID, "data_length": len(data)}).Info("Document saved")
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	delete(s.docs, id)
	logrus.WithField("document_id", id).Info("Document deleted")
	return nil
}

// Put 直接写入原始数据，用于导入外部文件或构造损坏数据。
func (s *memStore) Put(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = append([]byte(nil), data...)
}
