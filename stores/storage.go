// Package stores 根据环境变量选择文档存储后端，并提供自动保存。
package stores

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/stores/aws"
	"github.com/ByLCY/vellum/stores/filesystem"
	"github.com/ByLCY/vellum/stores/memory"
	"github.com/ByLCY/vellum/stores/sqlite"
)

// GetStore 按 STORAGE_TYPE 选择后端：filesystem、sqlite、s3，其余为内存存储。
func GetStore(ctx context.Context) (document.Store, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	storageField := logrus.Fields{"storageType": storageType}

	var store document.Store
	var err error
	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store, err = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "vellum.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store, err = sqlite.NewStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			return nil, fmt.Errorf("使用 s3 存储时必须设置 S3_BUCKET_NAME")
		}
		storageField["bucketName"] = bucketName
		store, err = aws.NewStore(ctx, bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
