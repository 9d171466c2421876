package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursebuilder/assess/internal/assess"
	"github.com/coursebuilder/assess/internal/audit"
	authmw "github.com/coursebuilder/assess/internal/auth/middleware"
	"github.com/coursebuilder/assess/internal/rbac"
)

// GET /submissions?assessment_id=&user_id=&limit=&offset=
// Students are pinned to their own submissions regardless of filters.
func ListSubmissionsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		opts := assess.ListOpts{
			AssessmentID: q.Get("assessment_id"),
			UserID:       q.Get("user_id"),
			Limit:        limit,
			Offset:       offset,
		}
		role := rbac.RoleFromContext(r.Context())
		if role == "student" {
			opts.UserID = authmw.SubjectFromContext(r.Context())
		}
		out, err := svc.ListSubmissions(r.Context(), opts)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		s, err := svc.GetSubmission(r.Context(), id)
		if err != nil {
			if errors.Is(err, assess.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role == "student" && s.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(s)
	}
}

// GET /events?after=&limit= — audit feed for dashboards.
func ListEventsHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if log == nil {
			http.Error(w, "audit log not configured", http.StatusNotImplemented)
			return
		}
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		out, err := log.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
