package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/handler"
	"github.com/dmorgan81/pixelizer/internal/image"
	"github.com/dmorgan81/pixelizer/internal/log"
	"github.com/dmorgan81/pixelizer/internal/param"
	"github.com/dmorgan81/pixelizer/internal/store"
)

// Setup registers every service lazily; AWS clients are only built when an
// ssm: key or an s3:// output actually needs them.
func Setup(ctx context.Context, settings config.Settings, client *http.Client) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		cfg, err := do.Invoke[aws.Config](i)
		if err != nil {
			return nil, err
		}
		return ssm.NewFromConfig(cfg), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		cfg, err := do.Invoke[aws.Config](i)
		if err != nil {
			return nil, err
		}
		return s3.NewFromConfig(cfg), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		cfg, err := do.Invoke[aws.Config](i)
		if err != nil {
			return nil, err
		}
		return cloudfront.NewFromConfig(cfg), nil
	})
	do.ProvideValue[*http.Client](injector, client)
	do.ProvideValue[config.Settings](injector, settings)

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[*param.Resolver](injector, param.NewResolver)
	do.Provide[image.Pixelizer](injector, image.NewAPILayerPixelizer)
	do.Provide[*store.S3Uploader](injector, store.NewS3Uploader)
	do.Provide[store.Uploader](injector, func(i *do.Injector) (store.Uploader, error) {
		return &store.Router{
			Files: &store.FileUploader{},
			Objects: func() (store.Uploader, error) {
				return do.Invoke[*store.S3Uploader](i)
			},
		}, nil
	})
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if settings.Distribution == "" {
			return store.NopInvalidator{}, nil
		}
		client, err := do.Invoke[*cloudfront.Client](i)
		if err != nil {
			return nil, err
		}
		return &store.CloudFrontInvalidator{Client: client, Distribution: settings.Distribution}, nil
	})

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
