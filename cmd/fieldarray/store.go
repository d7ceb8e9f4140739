package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/fieldarray/blobstore"
	"github.com/hupe1980/fieldarray/blobstore/minio"
	"github.com/hupe1980/fieldarray/blobstore/s3"
	"github.com/hupe1980/fieldarray/blobstore/sqlite"
)

// openStore builds the configured blob store. The returned close function
// releases backend resources and is never nil.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "local":
		return blobstore.NewLocalStore(cfg.Path), noop, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, db.Close, nil

	case "s3":
		var optFns []func(*config.LoadOptions) error
		if cfg.Region != "" {
			optFns = append(optFns, config.WithRegion(cfg.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}

		client := awss3.NewFromConfig(awsCfg)
		var store blobstore.Store
		if cfg.Express {
			store = s3.NewExpressStore(client, cfg.Bucket, cfg.Prefix)
		} else {
			store = s3.NewStore(client, cfg.Bucket, cfg.Prefix)
		}

		if cfg.DynamoDBTable != "" {
			baseURI := "s3://" + cfg.Bucket
			if cfg.Prefix != "" {
				baseURI += "/" + cfg.Prefix
			}
			store = s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, baseURI)
		}
		return store, noop, nil

	case "minio":
		client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create minio client: %w", err)
		}
		return minio.NewStore(client, cfg.Bucket, cfg.Prefix), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
