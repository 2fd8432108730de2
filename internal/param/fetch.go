package param

import (
	"context"
	"strings"

	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/log"
)

// SSMPrefix marks a value that must be looked up in Parameter Store, e.g.
// "ssm:/pixelizer/api-key".
const SSMPrefix = "ssm:"

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

func IsReference(value string) bool {
	return strings.HasPrefix(value, SSMPrefix)
}

// Resolver turns literal-or-reference values into literals. The fetcher is
// only built when a reference is actually seen.
type Resolver struct {
	Fetcher func() (Fetcher, error)
}

func NewResolver(i *do.Injector) (*Resolver, error) {
	return &Resolver{Fetcher: func() (Fetcher, error) {
		return do.Invoke[Fetcher](i)
	}}, nil
}

func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	path, ok := strings.CutPrefix(value, SSMPrefix)
	if !ok {
		return value, nil
	}
	log.FromContextOrDiscard(ctx).Debug("resolving parameter reference", "path", path)

	if path == "" {
		return "", fault.Configf("parameter reference %q has no path", value)
	}
	fetcher, err := r.Fetcher()
	if err != nil {
		return "", fault.Config("parameter store unavailable", err)
	}
	v, err := fetcher.Fetch(ctx, path)
	if err != nil {
		if fault.KindOf(err) != fault.KindUnknown {
			return "", err
		}
		return "", fault.Config("fetch parameter "+path, err)
	}
	if v = strings.TrimSpace(v); v == "" {
		return "", fault.Configf("parameter %s is empty", path)
	}
	return v, nil
}
