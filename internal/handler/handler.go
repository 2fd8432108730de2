package handler

import (
	"context"

	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/image"
	"github.com/dmorgan81/pixelizer/internal/log"
	"github.com/dmorgan81/pixelizer/internal/param"
	"github.com/dmorgan81/pixelizer/internal/store"
)

type Input struct {
	URL    string `json:"url,omitempty"`
	File   string `json:"file,omitempty"`
	Output string `json:"output,omitempty"`
}

type Output struct {
	Output      string `json:"output"`
	Bytes       int    `json:"bytes"`
	ContentType string `json:"content_type"`
}

type Handler struct {
	settings    config.Settings
	resolver    *param.Resolver
	pixelizer   image.Pixelizer
	uploader    store.Uploader
	invalidator store.Invalidator
}

func NewHandler(i *do.Injector) (*Handler, error) {
	settings, err := do.Invoke[config.Settings](i)
	if err != nil {
		return nil, err
	}
	resolver, err := do.Invoke[*param.Resolver](i)
	if err != nil {
		return nil, err
	}
	pixelizer, err := do.Invoke[image.Pixelizer](i)
	if err != nil {
		return nil, err
	}
	uploader, err := do.Invoke[store.Uploader](i)
	if err != nil {
		return nil, err
	}
	invalidator, err := do.Invoke[store.Invalidator](i)
	if err != nil {
		return nil, err
	}
	return &Handler{
		settings:    settings,
		resolver:    resolver,
		pixelizer:   pixelizer,
		uploader:    uploader,
		invalidator: invalidator,
	}, nil
}

// Handle validates the input, pixelizes the source and stores the result.
// Validation failures return before any request leaves the process.
func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling invocation")

	inv, err := config.NewInvocation(h.settings, input.URL, input.File, input.Output)
	if err != nil {
		return Output{}, err
	}

	key, err := h.resolver.Resolve(ctx, inv.APIKey)
	if err != nil {
		return Output{}, err
	}

	img, err := h.pixelizer.Pixelize(ctx, image.Params{Key: key, Source: inv.Source})
	if err != nil {
		return Output{}, err
	}

	err = h.uploader.Upload(ctx, store.UploadParams{
		Target:      inv.Output,
		Data:        img.Data,
		ContentType: img.ContentType,
		Metadata:    metadata(inv.Source),
	})
	if err != nil {
		return Output{}, err
	}

	if inv.Output.IsObject() && inv.Distribution != "" {
		if err := h.invalidator.Invalidate(ctx, []string{"/" + inv.Output.Key}); err != nil {
			return Output{}, err
		}
	}

	log.Info("stored pixelized image", "output", inv.Output.String(), "bytes", len(img.Data))
	return Output{
		Output:      inv.Output.String(),
		Bytes:       len(img.Data),
		ContentType: img.ContentType,
	}, nil
}

// metadata is attached to S3 objects, which only accept ASCII values, so file
// paths are left out.
func metadata(src config.Source) map[string]string {
	if !src.IsURL() {
		return nil
	}
	return map[string]string{"source": src.Ref}
}
