package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"imchat/internal/domain"
)

// envelope is the body of every API response. Code is 0 on success and the
// HTTP status otherwise.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: 0, Message: "ok", Data: data})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Code: status, Message: message})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusUnprocessableEntity},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrRateLimited, http.StatusTooManyRequests},
}

// writeError maps domain errors onto their status. The message is the detail
// the service attached after the sentinel, if any.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeFail(w, e.status, errorDetail(err, e.err))
			return
		}
	}

	log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, envelope{
		Code:    http.StatusInternalServerError,
		Message: "internal error",
		Data:    map[string]string{"error": err.Error()},
	})
}

func errorDetail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}

// decodeJSON reads a JSON object body. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput)
}

// idField is an integer request field that also accepts numeric strings.
// A nil *idField means the field was absent or null.
type idField int64

func (f *idField) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*f = idField(n)
	return nil
}

// stringField is a string request field that also accepts bare numbers.
type stringField string

func (f *stringField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = stringField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("not a string: %s", b)
	}
	*f = stringField(n.String())
	return nil
}

// requireFields reports the first absent or empty field, in order.
func requireFields(fields ...namedField) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("%w: missing field: %s", domain.ErrInvalidInput, f.name)
		}
	}
	return nil
}

type namedField struct {
	name    string
	present bool
}

func hasID(name string, v *idField) namedField {
	return namedField{name: name, present: v != nil}
}

func hasString(name string, v *stringField) namedField {
	return namedField{name: name, present: v != nil && *v != ""}
}

func (f *idField) value() int64 {
	if f == nil {
		return 0
	}
	return int64(*f)
}

func (f *stringField) value() string {
	if f == nil {
		return ""
	}
	return string(*f)
}
