package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gookit/color"
	"github.com/samber/do"
	"github.com/samber/lo"

	"github.com/dmorgan81/pixelizer/internal/cli"
	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/handler"
	"github.com/dmorgan81/pixelizer/internal/inject"
	"github.com/dmorgan81/pixelizer/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, http.DefaultClient))
}

func run(args []string, stdout, stderr io.Writer, client *http.Client) int {
	opts, help, err := cli.Parse(args, config.Load(), stderr)
	if help {
		return 0
	}
	if err != nil {
		return fail(stderr, err)
	}

	level := lo.Ternary(opts.Verbose, slog.LevelDebug, slog.LevelWarn)
	ctx := log.NewContext(context.Background(), log.New(stderr, level))

	injector := inject.Setup(ctx, opts.Settings, client)
	defer func() { _ = injector.Shutdown() }()

	h, err := do.Invoke[*handler.Handler](injector)
	if err != nil {
		return fail(stderr, err)
	}
	out, err := h.Handle(ctx, opts.Input)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintln(stdout, color.Green.Sprint("Successfully pixelized image!"))
	fmt.Fprintf(stdout, "Saved %d bytes to %s\n", out.Bytes, out.Output)
	return 0
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, color.Red.Sprint("Error: "+err.Error()))
	return fault.ExitCode(err)
}
