package param

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/log"
)

// ParameterStoreFetcher reads SecureString parameters such as the API key.
type ParameterStoreFetcher struct {
	client *ssm.Client
}

func NewParameterStoreFetcher(i *do.Injector) (Fetcher, error) {
	client, err := do.Invoke[*ssm.Client](i)
	if err != nil {
		return nil, err
	}
	return &ParameterStoreFetcher{client: client}, nil
}

func (f *ParameterStoreFetcher) Fetch(ctx context.Context, path string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("parameter store").With("path", path)
	log.Debug("fetching api key parameter")

	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fault.Config("get parameter "+path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fault.Configf("parameter %s has no value", path)
	}
	log.Debug("fetched api key parameter", "version", out.Parameter.Version)
	return aws.ToString(out.Parameter.Value), nil
}
