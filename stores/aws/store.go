// Package aws 把文档保存为 S3 对象，键为 documents/<id>.json。
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/document"
)

const prefix = "documents/"

// Client 是存储用到的 S3 操作子集，*s3.Client 满足该接口。
type Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Store struct {
	client Client
	bucket string
}

// NewStore 使用默认的 AWS 配置链创建 S3 存储。
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

// NewStoreWithClient 使用给定客户端创建存储。
func NewStoreWithClient(client Client, bucketName string) *s3Store {
	return &s3Store{client: client, bucket: bucketName}
}

func key(id string) (string, error) {
	if err := document.ValidateID(id); err != nil {
		return "", err
	}
	return prefix + id + ".json", nil
}

func notFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *s3Store) List(ctx context.Context) ([]document.Meta, error) {
	var out []document.Meta
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("列出文档失败: %w", err)
		}
		for _, obj := range page.Contents {
			id := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(obj.Key), prefix), ".json")
			d, err := s.Get(ctx, id)
			if err != nil {
				logrus.WithField("key", aws.ToString(obj.Key)).WithError(err).Warn("skipping unreadable object")
				continue
			}
			out = append(out, document.MetaOf(d))
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		token = page.NextContinuationToken
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (document.Document, error) {
	k, err := key(id)
	if err != nil {
		return document.Document{}, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if notFound(err) {
			return document.Document{}, fmt.Errorf("%w: %s", document.ErrNotFound, id)
		}
		return document.Document{}, fmt.Errorf("读取文档 %s 失败: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return document.Document{}, fmt.Errorf("读取文档内容失败: %w", err)
	}
	d, err := document.Decode(data)
	if err != nil {
		return document.Document{}, err
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

func (s *s3Store) Save(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	k, err := key(d.ID)
	if err != nil {
		return err
	}
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
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("上传文档失败: %w", err)
	}
	logrus.WithFields(logrus.Fields{"document_id": d.ID, "bucket": s.bucket}).Info("Document saved")
	return nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	k, _ := key(id)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return fmt.Errorf("删除文档失败: %w", err)
	}
	return nil
}
