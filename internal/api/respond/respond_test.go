package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"ok", `{"name":"x"}`, ""},
		{"empty", ``, "request body is empty"},
		{"unknown field", `{"nam":"x"}`, "unknown field"},
		{"trailing object", `{"name":"x"}{"name":"y"}`, "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input)), &b)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", b.Name)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, http.StatusBadRequest, "BAD", "Bad thing", "details")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BAD", resp.Error.Code)
	assert.Equal(t, "details", resp.Error.Detail)
}

func TestWriteJSONCacheHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, []byte(`{}`), `W/"abc"`, 5*time.Minute, true)

	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "private, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
}
