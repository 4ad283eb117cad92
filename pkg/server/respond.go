package server

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps err to a status and writes {"error": message}. Internal
// errors are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := orgerr.HTTPStatus(err)
	body := errorBody{Error: orgerr.UserMessage(err), Code: string(orgerr.GetCode(err))}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		if body.Code == "" {
			body.Error = "Internal server error"
		}
	}
	writeJSON(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody reads a JSON object into a raw field map so handlers can tell
// a missing key from a zero value.
func decodeBody(r *http.Request) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if body == nil {
		body = map[string]json.RawMessage{}
	}
	return body, nil
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "read body")
	}
	return data, nil
}
