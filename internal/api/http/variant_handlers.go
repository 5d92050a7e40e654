package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examforge/examforge/internal/exam"
)

type generateReq struct {
	RecipientIDs []string `json:"recipient_ids"`
}

type generateResp struct {
	Count    int            `json:"count"`
	Variants []exam.Variant `json:"variants"`
	// Replaced is only set by regenerate: how many previously issued
	// variants (and any sheets printed from them) just became invalid.
	Replaced *int `json:"replaced,omitempty"`
}

// POST /tests/{testID}/variants
func GenerateVariantsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		vs, err := svc.GenerateVariants(r.Context(), chi.URLParam(r, "testID"), req.RecipientIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, generateResp{Count: len(vs), Variants: vs})
	}
}

// POST /tests/{testID}/variants/regenerate — full replace, never merge.
func RegenerateVariantsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		vs, replaced, err := svc.RegenerateVariants(r.Context(), chi.URLParam(r, "testID"), req.RecipientIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, generateResp{Count: len(vs), Variants: vs, Replaced: &replaced})
	}
}

// GET /tests/{testID}/variants
func ListVariantsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vs, err := svc.ListVariants(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, generateResp{Count: len(vs), Variants: vs})
	}
}

// GET /variants/{code} — the print/layout collaborator reads a variant's
// shuffled questions and code from here.
func GetVariantHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetVariantByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
