package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-viper/mapstructure/v2"
)

// MaxBodyBytes caps request bodies read by DecodeRequest.
const MaxBodyBytes = 1 << 20

var ErrBadRequest = errors.New("malformed request body")

// DecodeRequest fills dst from a JSON body, or from form values for any other
// content type. Form fields are matched against dst's json tags.
func DecodeRequest(r *http.Request, dst any) error {
	if isJSON(r) {
		body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
		if err := json.NewDecoder(body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	values := make(map[string]any, len(r.Form))
	for k := range r.Form {
		values[k] = r.Form.Get(k)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// peekJSONField reads a top-level string field of a JSON body and restores
// the body for the next reader.
func peekJSONField(r *http.Request, field string) string {
	if r.Body == nil {
		return ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}

	var fields map[string]any
	if json.Unmarshal(buf, &fields) != nil {
		return ""
	}
	s, _ := fields[field].(string)
	return s
}
