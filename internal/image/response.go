package image

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmorgan81/pixelizer/internal/fault"
)

var maxBody int64 = 64 << 20

// apiBody covers both shapes the service answers with: {"result": "<url>"} on
// success and {"message": "..."} or {"error": "..."} on failure.
type apiBody struct {
	Result  string `json:"result"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b apiBody) errorMessage() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

type interpretation struct {
	Result    Result
	ResultURL string
}

func interpret(resp *http.Response) (interpretation, error) {
	data, err := readBody(resp.Body)
	if err != nil {
		return interpretation{}, err
	}
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !success {
		return interpretation{}, fault.API(resp.StatusCode, failureMessage(resp, data))
	}
	if len(data) == 0 {
		return interpretation{}, fault.Protocolf("empty response body (status %d)", resp.StatusCode)
	}

	mime := mimetype.Detect(data)
	if isJSON(resp, mime) {
		var body apiBody
		if err := json.Unmarshal(data, &body); err != nil {
			return interpretation{}, fault.Protocol("decode json response", err)
		}
		switch {
		case body.errorMessage() != "":
			return interpretation{}, fault.API(resp.StatusCode, body.errorMessage())
		case body.Result != "":
			return interpretation{ResultURL: body.Result}, nil
		default:
			return interpretation{}, fault.Protocolf("json response has no result: %s", snippet(data))
		}
	}
	if mime.Is("text/html") {
		return interpretation{}, fault.Protocolf("expected an image, got html: %s", snippet(data))
	}
	if isText(resp, mime) {
		return interpretation{}, fault.Protocolf("expected an image, got text: %s", snippet(data))
	}

	return interpretation{Result: Result{Data: data, ContentType: mime.String()}}, nil
}

func isJSON(resp *http.Response, mime *mimetype.MIME) bool {
	return mime.Is("application/json") || strings.Contains(resp.Header.Get("Content-Type"), "json")
}

// isText reports a declared text/* type or a body that sniffs as plain text.
// A missing header with binary content is still treated as an image.
func isText(resp *http.Response, mime *mimetype.MIME) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/") || mime.Is("text/plain")
}

func failureMessage(resp *http.Response, data []byte) string {
	var body apiBody
	if err := json.Unmarshal(data, &body); err == nil && body.errorMessage() != "" {
		return body.errorMessage()
	}
	if text := snippet(data); text != "" && !mimetype.Detect(data).Is("text/html") {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func snippet(data []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(data))
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	return text
}
