package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/grading"
)

type gradeScanReq struct {
	Answers []string `json:"answers"` // letters in sheet order; "" = blank
}

// POST /variants/{code}/grade — the scanning collaborator submits the
// letters it read off a sheet, keyed by the sheet's variant code.
func GradeScanHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeScanReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		v, err := svc.GetVariantByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		res, err := grading.GradeScan(v, req.Answers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
