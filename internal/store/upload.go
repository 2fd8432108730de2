package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/log"
)

type UploadParams struct {
	Target      config.Target
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes to the local filesystem through a temp file and rename,
// so an interrupted run never leaves a truncated image at the target path.
type FileUploader struct{}

func (*FileUploader) Upload(ctx context.Context, params UploadParams) error {
	path := params.Target.Path
	log := log.FromContextOrDiscard(ctx).WithGroup("file").With("path", path)
	log.Info("writing", "bytes", len(params.Data))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fault.IO("create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fault.IO("create temp file in "+dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(params.Data); err != nil {
		tmp.Close()
		return fault.IO("write "+tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fault.IO("sync "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fault.IO("close "+tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fault.IO("chmod "+tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fault.IO(fmt.Sprintf("move into place at %s", path), err)
	}
	return nil
}

// Router sends each upload to the filesystem or S3 depending on the target.
// The S3 uploader is built on first use.
type Router struct {
	Files   Uploader
	Objects func() (Uploader, error)
}

func (r *Router) Upload(ctx context.Context, params UploadParams) error {
	if !params.Target.IsObject() {
		return r.Files.Upload(ctx, params)
	}
	u, err := r.Objects()
	if err != nil {
		return fault.IO("s3 unavailable", err)
	}
	return u.Upload(ctx, params)
}
