package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Tier  *int     `json:"tier"`
}

var typeMessages = map[string]string{
	"title": "Title must be a string",
	"tags":  "Tags must be an array of strings",
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields domain.FieldErrors
		wantJSON   bool
	}{
		{name: "valid", body: `{"title":"Disk full","tags":["db"]}`, wantFields: domain.FieldErrors{}},
		{name: "unknown fields are ignored", body: `{"title":"Disk full","extra":1}`, wantFields: domain.FieldErrors{}},
		{name: "mistyped mapped field", body: `{"tags":"db"}`, wantFields: domain.FieldErrors{"tags": "Tags must be an array of strings"}},
		{name: "mistyped array element", body: `{"tags":[1]}`, wantFields: domain.FieldErrors{"tags": "Tags must be an array of strings"}},
		{
			name: "every mistyped field is collected",
			body: `{"title":5,"tags":"db"}`,
			wantFields: domain.FieldErrors{
				"title": "Title must be a string",
				"tags":  "Tags must be an array of strings",
			},
		},
		{name: "mistyped unmapped field", body: `{"tier":"one"}`, wantJSON: true},
		{name: "truncated", body: `{"title":`, wantJSON: true},
		{name: "empty", body: ``, wantJSON: true},
		{name: "not an object", body: `[]`, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget

			fields, err := DecodeJSON(req, &dst, typeMessages)

			if tt.wantJSON {
				assert.ErrorIs(t, err, ErrInvalidJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestDecodeJSON_MistypedFieldKeepsOthers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"title":"ab","tags":"x","tier":2}`))
	var dst decodeTarget

	fields, err := DecodeJSON(req, &dst, typeMessages)

	require.NoError(t, err)
	assert.Equal(t, domain.FieldErrors{"tags": "Tags must be an array of strings"}, fields)
	assert.Equal(t, "ab", dst.Title)
	require.NotNil(t, dst.Tier)
	assert.Equal(t, 2, *dst.Tier)
	assert.Nil(t, dst.Tags)
}

func TestRespondDecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDecodeError(rec, ErrInvalidJSON)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, CodeValidation, body.Code)
	assert.Equal(t, "invalid json", body.Message)
	assert.Empty(t, body.Fields)
}
