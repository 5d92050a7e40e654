package http

import (
	"net/http"

	"github.com/examforge/examforge/internal/importer"
)

// POST /imports (multipart: file=<upload>, kind=document|image)
func ImportHandler(p *importer.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		kind := importer.SourceKind(r.FormValue("kind"))
		if kind == "" {
			kind = importer.SourceDocument
		}

		res, err := p.Import(r.Context(), f, kind, hdr.Filename)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
