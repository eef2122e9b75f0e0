package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// bodyParser accepts either JSON or form-encoded request bodies so the API
// serves both programmatic clients and plain HTML forms.
type bodyParser struct {
	jsonData map[string]any
	formData url.Values
	err      error
}

func parseBody(r *http.Request) *bodyParser {
	p := &bodyParser{}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		p.err = err
		return p
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return p
	}

	if trimmed[0] == '{' {
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.UseNumber()
		p.jsonData = make(map[string]any)
		p.err = decoder.Decode(&p.jsonData)
		return p
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p
}

// get returns the trimmed string value for key from whichever body format
// was submitted.
func (p *bodyParser) get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(p.formData.Get(key))
	}
	return ""
}

func stringValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
