package inject

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorgan81/pixelizer/internal/config"
	"github.com/dmorgan81/pixelizer/internal/handler"
	"github.com/dmorgan81/pixelizer/internal/store"
)

func TestSetupWiresHandlerWithoutAWS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x01, 0x02})
	}))
	defer srv.Close()

	settings := config.Settings{APIKey: "key", Endpoint: srv.URL, Upload: config.UploadMultipart}
	injector := Setup(context.Background(), settings, srv.Client())
	defer func() { _ = injector.Shutdown() }()

	h, err := do.Invoke[*handler.Handler](injector)
	require.NoError(t, err)

	inv, err := do.Invoke[store.Invalidator](injector)
	require.NoError(t, err)
	assert.IsType(t, store.NopInvalidator{}, inv)

	out := filepath.Join(t.TempDir(), "out.jpg")
	_, err = h.Handle(context.Background(), handler.Input{URL: "https://example.com/a.jpg", Output: out})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)
}
