package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/handler"
	"github.com/dmorgan81/pixelizer/internal/inject"
	"github.com/dmorgan81/pixelizer/internal/log"
)

// Event is the Lambda payload. Only URL sources make sense here.
type Event struct {
	URL    string `json:"url"`
	Output string `json:"output,omitempty"`
}

func main() {
	ctx := log.NewContext(context.Background(), log.New(os.Stderr, slog.LevelInfo))
	injector := inject.Setup(ctx, config.Load(), http.DefaultClient)
	h := do.MustInvoke[*handler.Handler](injector)

	bucket := strings.TrimSpace(os.Getenv("BUCKET"))
	lambda.StartWithOptions(func(ctx context.Context, e Event) (handler.Output, error) {
		return h.Handle(ctx, toInput(e, bucket))
	}, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}

func toInput(e Event, bucket string) handler.Input {
	out := e.Output
	if out == "" {
		out = defaultOutput(bucket, uuid.NewString())
	}
	return handler.Input{URL: e.URL, Output: out}
}

func defaultOutput(bucket, id string) string {
	if bucket == "" {
		return "/tmp/" + config.DefaultOutput
	}
	return "s3://" + bucket + "/pixelized/" + id + ".jpg"
}
