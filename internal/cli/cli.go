package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/handler"
)

// Options is everything one CLI run needs.
type Options struct {
	Settings config.Settings
	Input    handler.Input
	Verbose  bool
}

// Parse resolves flags on top of env-derived defaults and validates them
// without touching the network. help is true when -h/--help was requested.
func Parse(args []string, defaults config.Settings, output io.Writer) (opts Options, help bool, err error) {
	fs := flag.NewFlagSet("pixelize", flag.ContinueOnError)
	// Parse errors are reported once by the caller; usage is printed only on -h/--help.
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	apiKey := fs.String("api-key", defaults.APIKey, "API key for the face pixelizer API, or ssm:<path> (default $PIXELIZER_API_KEY)")
	url := fs.String("url", "", "URL of the image to pixelize")
	file := fs.String("file", "", "Path to the local image file to pixelize")
	out := fs.String("output", config.DefaultOutput, "Where to write the result: a file path or s3://bucket/key")
	endpoint := fs.String("endpoint", defaults.Endpoint, "Base URL of the face pixelizer API")
	upload := fs.String("upload", string(config.UploadMultipart), "How --file is sent: multipart or raw")
	distribution := fs.String("distribution", defaults.Distribution, "CloudFront distribution to invalidate after an s3:// upload")
	verbose := fs.Bool("verbose", false, "Log debug details")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(fs, output)
			return Options{}, true, nil
		}
		return Options{}, false, fault.Config("invalid arguments", err)
	}
	if fs.NArg() > 0 {
		return Options{}, false, fault.Configf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	mode, err := config.ParseUploadMode(*upload)
	if err != nil {
		return Options{}, false, err
	}

	opts = Options{
		Settings: config.Settings{
			APIKey:       strings.TrimSpace(*apiKey),
			Endpoint:     strings.TrimSpace(*endpoint),
			Upload:       mode,
			Distribution: strings.TrimSpace(*distribution),
		},
		Input: handler.Input{
			URL:    strings.TrimSpace(*url),
			File:   strings.TrimSpace(*file),
			Output: strings.TrimSpace(*out),
		},
		Verbose: *verbose,
	}

	if _, err := config.NewInvocation(opts.Settings, opts.Input.URL, opts.Input.File, opts.Input.Output); err != nil {
		return Options{}, false, err
	}
	return opts, false, nil
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: pixelize --api-key <key> (--url <image-url> | --file <path>) [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pixelizes faces in an image using the Face Pixelizer API.")
	fmt.Fprintln(w, "Environment: PIXELIZER_API_KEY, PIXELIZER_ENDPOINT and PIXELIZER_DISTRIBUTION seed the defaults; .env is read if present.")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
