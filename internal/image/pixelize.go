package image

import (
	"context"

	"github.com/dmorgan81/pixelizer/internal/config"
)

type Params struct {
	Key    string
	Source config.Source
}

// Result is the processed image as returned by the service.
type Result struct {
	Data        []byte
	ContentType string
}

type Pixelizer interface {
	Pixelize(context.Context, Params) (Result, error)
}
