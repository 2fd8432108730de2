package image

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/fault"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newPixelizer(srv *httptest.Server, mode config.UploadMode) *APILayerPixelizer {
	return &APILayerPixelizer{Client: srv.Client(), Endpoint: srv.URL, Upload: mode}
}

func urlParams() Params {
	return Params{Key: "secret", Source: config.Source{Kind: config.SourceURL, Ref: "https://example.com/face.jpg"}}
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPixelizeURLReturnsBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/url", r.URL.Path)
		assert.Equal(t, "https://example.com/face.jpg", r.URL.Query().Get("url"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x01, 0x02})
	}))
	defer srv.Close()

	res, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), urlParams())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, res.Data)
}

func TestPixelizeFileMultipart(t *testing.T) {
	path := writeImage(t, pngHeader)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))

		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		got, _ := io.ReadAll(f)
		assert.Equal(t, pngHeader, got)
		assert.Equal(t, "face.png", hdr.Filename)

		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	res, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), Params{
		Key:    "secret",
		Source: config.Source{Kind: config.SourceFile, Ref: path},
	})
	require.NoError(t, err)
	assert.Equal(t, pngHeader, res.Data)
	assert.Equal(t, "image/png", res.ContentType)
}

func TestPixelizeFileRaw(t *testing.T) {
	path := writeImage(t, pngHeader)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, pngHeader, got)
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	_, err := newPixelizer(srv, config.UploadRaw).Pixelize(context.Background(), Params{
		Key:    "secret",
		Source: config.Source{Kind: config.SourceFile, Ref: path},
	})
	require.NoError(t, err)
}

func TestPixelizeFollowsResultURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/url", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":"`+srv.URL+`/results/out.png"}`)
	})
	mux.HandleFunc("/results/out.png", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("apikey"))
		_, _ = w.Write(pngHeader)
	})

	res, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), urlParams())
	require.NoError(t, err)
	assert.Equal(t, pngHeader, res.Data)
}

func TestPixelizeResolvesRelativeResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/face/url", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":"/results/out.png"}`)
	})
	mux.HandleFunc("/results/out.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &APILayerPixelizer{Client: srv.Client(), Endpoint: srv.URL + "/face", Upload: config.UploadMultipart}
	res, err := p.Pixelize(context.Background(), urlParams())
	require.NoError(t, err)
	assert.Equal(t, pngHeader, res.Data)
}

func TestPixelizeBodyTooLarge(t *testing.T) {
	old := maxBody
	maxBody = 16
	t.Cleanup(func() { maxBody = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(make([]byte, 17))
	}))
	defer srv.Close()

	_, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), urlParams())
	assert.Equal(t, fault.KindProtocol, fault.KindOf(err))
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestPixelizeErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		kind        fault.Kind
		message     string
	}{
		{"json error", http.StatusUnauthorized, "application/json", `{"error":"invalid api key"}`, fault.KindAPI, "invalid api key"},
		{"json message", http.StatusTooManyRequests, "application/json", `{"message":"API rate limit exceeded"}`, fault.KindAPI, "API rate limit exceeded"},
		{"plain text failure", http.StatusBadGateway, "text/plain", "upstream down", fault.KindAPI, "upstream down"},
		{"empty failure", http.StatusInternalServerError, "", "", fault.KindAPI, "Internal Server Error"},
		{"error on 200", http.StatusOK, "application/json", `{"message":"no faces found"}`, fault.KindAPI, "no faces found"},
		{"empty success", http.StatusOK, "", "", fault.KindProtocol, "empty"},
		{"json without result", http.StatusOK, "application/json", `{"status":"ok"}`, fault.KindProtocol, "no result"},
		{"broken json", http.StatusOK, "application/json", `{"result":`, fault.KindProtocol, "decode"},
		{"html page", http.StatusOK, "text/html", "<!DOCTYPE html><html><body>hi</body></html>", fault.KindProtocol, "html"},
		{"text on success", http.StatusOK, "text/plain", "Service temporarily unavailable, try again later", fault.KindProtocol, "got text"},
		{"ftp result", http.StatusOK, "application/json", `{"result":"ftp://files.example.com/out.png"}`, fault.KindProtocol, "not an http(s) url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), urlParams())
			require.Error(t, err)
			assert.Equal(t, tt.kind, fault.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
			if tt.kind == fault.KindAPI {
				assert.Equal(t, tt.status, fault.StatusOf(err))
			}
		})
	}
}

func TestPixelizeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	p := newPixelizer(srv, config.UploadMultipart)
	srv.Close()

	_, err := p.Pixelize(context.Background(), urlParams())
	assert.Equal(t, fault.KindNetwork, fault.KindOf(err))
}

func TestPixelizeFileVanished(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newPixelizer(srv, config.UploadMultipart).Pixelize(context.Background(), Params{
		Key:    "secret",
		Source: config.Source{Kind: config.SourceFile, Ref: filepath.Join(t.TempDir(), "gone.jpg")},
	})
	assert.Equal(t, fault.KindIO, fault.KindOf(err))
	assert.False(t, called)
}
