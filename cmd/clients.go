package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/naip-sync/internal/s3store"
)

// sourceStore builds an S3 client against the source bucket's region.
func sourceStore(ctx context.Context) (*s3store.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Source.Region))
	if err != nil {
		return nil, eris.Wrap(err, "load aws config for source")
	}
	return s3store.NewFromS3(s3.NewFromConfig(awsCfg), cfg.Sync.UploadPartMB), nil
}

// destStore builds an S3 client against the destination bucket's region.
func destStore(ctx context.Context) (*s3store.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Dest.Region))
	if err != nil {
		return nil, eris.Wrap(err, "load aws config for destination")
	}
	return s3store.NewFromS3(s3.NewFromConfig(awsCfg), cfg.Sync.UploadPartMB), nil
}
