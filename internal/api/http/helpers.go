package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/importer"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors to HTTP statuses. The split between 502 and
// 422 is deliberate: "try again later" versus "check your file".
func writeErr(w http.ResponseWriter, err error) {
	var ve *exam.ValidationError
	switch {
	case errors.Is(err, importer.ErrUnknownKind), errors.Is(err, exam.ErrNoRecipients):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, importer.ErrExtractionTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, importer.ErrExtraction):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, importer.ErrEmptyResult), errors.As(err, &ve):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, exam.ErrTestNotFound), errors.Is(err, exam.ErrVariantNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
