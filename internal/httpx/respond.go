package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
)

type envelope struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError: error bertipe apperr dikirim apa adanya, sisanya di-log dan
// dikirim sebagai 500 tanpa detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		if ae.Kind == apperr.KindGateway {
			log.Printf("gateway error req=%s %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		}
		writeJSON(w, ae.Status(), map[string]string{"errors": ae.Message})
		return
	}
	log.Printf("internal error req=%s %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"errors": "Internal server error"})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("invalid json body")
	}
	return nil
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func pathInt(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Invalid("%s must be a positive number", name)
	}
	return n, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid("%s must be a number", name)
	}
	return n, nil
}
