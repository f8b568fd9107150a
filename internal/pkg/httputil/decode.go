package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bissquit/opsdesk/internal/domain"
)

// MaxBodyBytes bounds request bodies accepted by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrInvalidJSON is returned when the request body is not a JSON object.
var ErrInvalidJSON = errors.New("invalid json")

// DecodeJSON decodes the request body, a JSON object, into dst.
//
// Each member is decoded on its own, so a value of the wrong type does not
// stop the others from being read. Mistyped fields listed in typeMessages are
// returned as field errors for the caller to report alongside its own
// validation. The body not being an object, or a mistyped field missing from
// typeMessages, is ErrInvalidJSON.
func DecodeJSON(r *http.Request, dst any, typeMessages map[string]string) (domain.FieldErrors, error) {
	var members map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes)).Decode(&members); err != nil {
		return nil, ErrInvalidJSON
	}

	fields := domain.FieldErrors{}
	for key, value := range members {
		err := json.Unmarshal(member(key, value), dst)
		if err == nil {
			continue
		}

		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, ErrInvalidJSON
		}
		field, _, _ := strings.Cut(typeErr.Field, ".")
		if field == "" {
			field = key
		}
		msg, ok := typeMessages[field]
		if !ok {
			return nil, ErrInvalidJSON
		}
		fields[field] = msg
	}
	return fields, nil
}

// member re-encodes a single object member as {"key":value}.
func member(key string, value json.RawMessage) []byte {
	name, _ := json.Marshal(key)
	buf := make([]byte, 0, len(name)+len(value)+3)
	buf = append(buf, '{')
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return append(buf, '}')
}

// RespondDecodeError writes the response for an error returned by DecodeJSON.
func RespondDecodeError(w http.ResponseWriter, _ error) {
	Error(w, http.StatusBadRequest, CodeValidation, ErrInvalidJSON.Error())
}
