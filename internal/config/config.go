package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/dmorgan81/pixelizer/internal/fault"
)

const (
	DefaultEndpoint = "https://api.apilayer.com/face_pixelizer"
	DefaultOutput   = "pixelized_image.jpg"
)

type UploadMode string

const (
	UploadMultipart UploadMode = "multipart"
	UploadRaw       UploadMode = "raw"
)

func ParseUploadMode(s string) (UploadMode, error) {
	switch mode := UploadMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return UploadMultipart, nil
	case UploadMultipart, UploadRaw:
		return mode, nil
	default:
		return "", fault.Configf("upload mode %q is not one of multipart, raw", s)
	}
}

// Settings are the process-wide values shared by every invocation.
type Settings struct {
	APIKey       string
	Endpoint     string
	Upload       UploadMode
	Distribution string
}

// Load reads .env (if present) and returns settings seeded from the environment.
// Flags override these before Validate is called.
func Load() Settings {
	_ = godotenv.Load()

	endpoint := strings.TrimSpace(os.Getenv("PIXELIZER_ENDPOINT"))
	return Settings{
		APIKey:       strings.TrimSpace(os.Getenv("PIXELIZER_API_KEY")),
		Endpoint:     lo.Ternary(endpoint != "", endpoint, DefaultEndpoint),
		Upload:       UploadMultipart,
		Distribution: strings.TrimSpace(os.Getenv("PIXELIZER_DISTRIBUTION")),
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fault.Configf("--api-key is required (or set PIXELIZER_API_KEY)")
	}
	if s.Endpoint == "" {
		return fault.Configf("endpoint is empty")
	}
	if _, err := parseHTTPURL(s.Endpoint); err != nil {
		return fault.Config("invalid endpoint", err)
	}
	if _, err := ParseUploadMode(string(s.Upload)); err != nil {
		return err
	}
	return nil
}

// Invocation is the validated input for one run.
type Invocation struct {
	Settings
	Source Source
	Output Target
}

func NewInvocation(settings Settings, url, file, output string) (Invocation, error) {
	if err := settings.Validate(); err != nil {
		return Invocation{}, err
	}
	src, err := NewSource(url, file)
	if err != nil {
		return Invocation{}, err
	}
	target, err := ParseTarget(output)
	if err != nil {
		return Invocation{}, err
	}
	if settings.Distribution != "" && !target.IsObject() {
		return Invocation{}, fault.Configf("--distribution requires an s3:// output, got %q", target)
	}
	return Invocation{Settings: settings, Source: src, Output: target}, nil
}
