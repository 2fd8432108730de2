package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/do"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/fault"
	"github.com/dmorgan81/pixelizer/internal/log"
)

const (
	keyHeader     = "apikey"
	multipartName = "image"
)

// APILayerPixelizer talks to the apilayer face_pixelizer API, or anything
// exposing the same /url and /upload contract.
type APILayerPixelizer struct {
	Client   *http.Client
	Endpoint string
	Upload   config.UploadMode
}

func NewAPILayerPixelizer(i *do.Injector) (Pixelizer, error) {
	client, err := do.Invoke[*http.Client](i)
	if err != nil {
		return nil, err
	}
	settings, err := do.Invoke[config.Settings](i)
	if err != nil {
		return nil, err
	}
	return &APILayerPixelizer{Client: client, Endpoint: settings.Endpoint, Upload: settings.Upload}, nil
}

func (p *APILayerPixelizer) Pixelize(ctx context.Context, params Params) (Result, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("apilayer").With("source", params.Source.Ref)

	req, err := p.newRequest(ctx, params)
	if err != nil {
		return Result{}, err
	}
	log.Info("sending image to face pixelizer", "method", req.Method, "path", req.URL.Path)

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, fault.Network("send request to "+p.Endpoint, err)
	}
	defer resp.Body.Close()
	log.Info("received response", "status", resp.StatusCode, "content-type", resp.Header.Get("Content-Type"))

	res, err := interpret(resp)
	if err != nil {
		return Result{}, err
	}
	if res.ResultURL == "" {
		return res.Result, nil
	}

	log.Info("downloading pixelized image", "url", res.ResultURL)
	return p.download(ctx, res.ResultURL)
}

func (p *APILayerPixelizer) newRequest(ctx context.Context, params Params) (*http.Request, error) {
	base := strings.TrimRight(p.Endpoint, "/")

	var (
		req *http.Request
		err error
	)
	switch params.Source.Kind {
	case config.SourceURL:
		q := url.Values{}
		q.Set("url", params.Source.Ref)
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/url?"+q.Encode(), nil)
		if err != nil {
			return nil, fault.Config("invalid endpoint", err)
		}
	case config.SourceFile:
		req, err = p.newUploadRequest(ctx, base+"/upload", params.Source.Ref)
	default:
		return nil, fault.Configf("no image source given")
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set(keyHeader, params.Key)
	req.Header.Set("Accept", "image/*, application/json")
	return req, nil
}

func (p *APILayerPixelizer) newUploadRequest(ctx context.Context, endpoint, path string) (*http.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.IO("read "+path, err)
	}

	var (
		body        bytes.Buffer
		contentType string
	)
	switch p.Upload {
	case config.UploadRaw:
		body.Write(data)
		contentType = mimetype.Detect(data).String()
	default:
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile(multipartName, filepath.Base(path))
		if err != nil {
			return nil, fault.IO("build multipart body", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fault.IO("build multipart body", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fault.IO("build multipart body", err)
		}
		contentType = mw.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fault.Config("invalid endpoint", err)
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// download fetches the image the API pointed at. The API key stays with the API.
func (p *APILayerPixelizer) download(ctx context.Context, resultURL string) (Result, error) {
	target, err := p.resolveResult(resultURL)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, fault.Protocol(fmt.Sprintf("result url %q is invalid", resultURL), err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, fault.Network("download "+resultURL, err)
	}
	defer resp.Body.Close()

	res, err := interpret(resp)
	if err != nil {
		return Result{}, err
	}
	if res.ResultURL != "" {
		return Result{}, fault.Protocolf("result url %s answered with another result url", resultURL)
	}
	return res.Result, nil
}

// resolveResult makes a relative result URL absolute against the endpoint and
// rejects anything that is not http(s).
func (p *APILayerPixelizer) resolveResult(raw string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fault.Protocol(fmt.Sprintf("result url %q is invalid", raw), err)
	}
	if !ref.IsAbs() {
		base, err := url.Parse(p.Endpoint)
		if err != nil {
			return "", fault.Config("invalid endpoint", err)
		}
		ref = base.ResolveReference(ref)
	}
	if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return "", fault.Protocolf("result url %q is not an http(s) url", raw)
	}
	return ref.String(), nil
}

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return nil, fault.Network("read response body", err)
	}
	if int64(len(data)) > maxBody {
		return nil, fault.Protocolf("response body exceeds %d bytes", maxBody)
	}
	return data, nil
}
