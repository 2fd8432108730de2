package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmorgan81/pixelizer/internal/fault"
)

type SourceKind int

const (
	SourceURL SourceKind = iota + 1
	SourceFile
)

// Source is exactly one of an image URL or a local file path.
type Source struct {
	Kind SourceKind
	Ref  string
}

func (s Source) IsURL() bool  { return s.Kind == SourceURL }
func (s Source) IsFile() bool { return s.Kind == SourceFile }

func (s Source) String() string {
	return s.Ref
}

// NewSource enforces URL xor file and checks the file is readable. It never
// touches the network.
func NewSource(rawURL, file string) (Source, error) {
	rawURL, file = strings.TrimSpace(rawURL), strings.TrimSpace(file)

	switch {
	case rawURL != "" && file != "":
		return Source{}, fault.Configf("--url and --file are mutually exclusive")
	case rawURL == "" && file == "":
		return Source{}, fault.Configf("one of --url or --file is required")
	case rawURL != "":
		u, err := parseHTTPURL(rawURL)
		if err != nil {
			return Source{}, fault.Config("invalid --url", err)
		}
		return Source{Kind: SourceURL, Ref: u.String()}, nil
	}

	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Source{}, fault.Config(fmt.Sprintf("file %q does not exist", file), err)
		}
		return Source{}, fault.Config(fmt.Sprintf("file %q is not accessible", file), err)
	}
	if info.IsDir() {
		return Source{}, fault.Configf("file %q is a directory", file)
	}
	f, err := os.Open(file)
	if err != nil {
		return Source{}, fault.Config(fmt.Sprintf("file %q is not readable", file), err)
	}
	_ = f.Close()

	return Source{Kind: SourceFile, Ref: filepath.Clean(file)}, nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q is missing a host", raw)
	}
	return u, nil
}
