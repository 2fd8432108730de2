package store

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/log"
)

type S3Uploader struct {
	Client *s3.Client
}

func NewS3Uploader(i *do.Injector) (*S3Uploader, error) {
	client, err := do.Invoke[*s3.Client](i)
	if err != nil {
		return nil, err
	}
	return &S3Uploader{Client: client}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"bucket", params.Target.Bucket,
		"key", params.Target.Key,
		"content-type", params.ContentType,
	)
	log.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(params.Target.Bucket),
		Key:         aws.String(params.Target.Key),
		ContentType: aws.String(params.ContentType),
		Body:        bytes.NewReader(params.Data),
		Metadata:    params.Metadata,
	})
	if err != nil {
		return fault.IO("upload "+params.Target.String(), err)
	}
	return nil
}

type CloudFrontInvalidator struct {
	Client       *cloudfront.Client
	Distribution string
}

func (i *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("cloudfront").With("paths", paths, "distribution", i.Distribution)
	log.Info("invalidating paths in cloudfront")

	_, err := i.Client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.Distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(time.Now().UTC().Format("20060102150405.000000000")),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return fault.IO("invalidate cloudfront distribution "+i.Distribution, err)
	}
	return nil
}
