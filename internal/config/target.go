package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dmorgan81/pixelizer/internal/fault"
)

// Target is where the result is persisted: a local Path, or an S3 Bucket/Key.
type Target struct {
	Path   string
	Bucket string
	Key    string
}

func (t Target) IsObject() bool { return t.Bucket != "" }

func (t Target) String() string {
	if t.IsObject() {
		return "s3://" + t.Bucket + "/" + t.Key
	}
	return t.Path
}

// ParseTarget accepts a filesystem path or an s3://bucket/key URL. An empty
// value resolves to DefaultOutput in the working directory.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{Path: DefaultOutput}, nil
	}

	if !strings.HasPrefix(raw, "s3://") {
		if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(filepath.Separator)) {
			return Target{}, fault.Configf("output %q names a directory, not a file", raw)
		}
		return Target{Path: filepath.Clean(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fault.Config("invalid s3 output", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return Target{}, fault.Configf("s3 output %q must look like s3://bucket/key", raw)
	}
	return Target{Bucket: u.Host, Key: key}, nil
}
