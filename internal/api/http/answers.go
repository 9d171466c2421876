package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coursebuilder/assess/internal/assess"
	authmw "github.com/coursebuilder/assess/internal/auth/middleware"
	"github.com/coursebuilder/assess/internal/grading"
)

type answerReq struct {
	AssessmentType string              `json:"assessment_type"`
	Answers        grading.ResponseSet `json:"answers"`
	XSRFToken      string              `json:"xsrf_token"`
}

type answerPayload struct {
	SubmissionID string  `json:"submission_id,omitempty"`
	RawScore     float64 `json:"rawScore"`
	TotalWeight  float64 `json:"totalWeight"`
	PercentScore float64 `json:"percentScore"`

	Items   []grading.QuestionScore `json:"items"`
	Answers map[string]interface{}  `json:"answers"`
}

// POST /answer — grade a page's answers. Graded assessments record a
// submission; practice assessments only grade. The response is the
// XSSI-prefixed {status, message, payload} envelope.
func AnswerHandler(svc *assess.Service, authSvc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeEnvelope(w, http.StatusBadRequest, "Malformed submission.", nil)
			return
		}
		if req.AssessmentType == "" {
			writeEnvelope(w, http.StatusBadRequest, "assessment_type required.", nil)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if err := authSvc.VerifyXSRF(req.XSRFToken, sub); err != nil {
			writeEnvelope(w, http.StatusForbidden, "Submission expired. Please refresh the page and try again.", nil)
			return
		}

		kind, err := svc.Kind(r.Context(), req.AssessmentType)
		if err != nil {
			if errors.Is(err, assess.ErrNotFound) {
				writeEnvelope(w, http.StatusNotFound, "Unknown assessment.", nil)
				return
			}
			writeEnvelope(w, http.StatusInternalServerError, "Could not grade your answers. Please try again.", nil)
			return
		}

		var payload answerPayload
		if kind == assess.KindGraded {
			rec, result, err := svc.Submit(r.Context(), req.AssessmentType, sub, req.Answers)
			if err != nil {
				writeEnvelope(w, http.StatusInternalServerError, "Could not record your score. Please try again.", nil)
				return
			}
			payload = resultPayload(result)
			payload.SubmissionID = rec.ID
		} else {
			result, err := svc.Grade(r.Context(), req.AssessmentType, req.Answers)
			if err != nil {
				writeEnvelope(w, http.StatusInternalServerError, "Could not grade your answers. Please try again.", nil)
				return
			}
			payload = resultPayload(result)
		}
		writeEnvelope(w, http.StatusOK, "OK", payload)
	}
}

func resultPayload(r grading.PageResult) answerPayload {
	return answerPayload{
		RawScore:     r.RawScore,
		TotalWeight:  r.TotalWeight,
		PercentScore: r.PercentScore,
		Items:        r.Items,
		Answers:      r.Answers,
	}
}
