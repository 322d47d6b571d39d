// Generation HTTP handlers.
//
//   - POST /roadmaps        (questionnaire in, markdown roadmap out)
//   - POST /resume-reviews  (JSON text or multipart file in, structured review out)
//
// Both routes honor Idempotency-Key. A retried key replays the stored result
// with 200 and Idempotency-Replayed: true; fresh results are 201.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/extract"
	"github.com/tbourn/careerfix-backend/internal/services"
)

const defaultMaxUpload = 5 << 20

//
// DTOs
//

// RoadmapRequest is the roadmap questionnaire.
type RoadmapRequest struct {
	CurrentRole    string `json:"current_role"    example:"Junior accountant"`
	CareerGoal     string `json:"career_goal"     example:"Data analyst"`
	Skills         string `json:"skills"          example:"Excel, basic SQL"`
	Timeline       string `json:"timeline"        example:"6 months"`
	AdditionalInfo string `json:"additional_info" example:"Prefer remote roles"`
}

// ResumeReviewRequest is the JSON form of a review request.
type ResumeReviewRequest struct {
	ResumeText string `json:"resume_text" example:"Jane Doe\nData Analyst..."`
	FileName   string `json:"file_name"   example:"resume.pdf"`
}

// GenerationResponse wraps services.GenerationResult for documentation.
type GenerationResponse = services.GenerationResult

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeText normalizes line endings and blank-line runs and trims.
func sanitizeText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CreateRoadmap godoc
// @ID          createRoadmap
// @Summary     Generate a career roadmap
// @Description Checks the caller's roadmap quota, the duplicate-submission and cool-down guards,
// @Description then generates a roadmap. Usage is charged only after a successful generation.
// @Tags        Generation
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                   false  "Key for safe retries"
// @Param       body             body    handlers.RoadmapRequest  true   "Questionnaire"
// @Success     201  {object}  handlers.GenerationResponse  "Generated"
// @Success     200  {object}  handlers.GenerationResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "invalid_input"
// @Failure     403  {object}  handlers.ErrorResponse  "quota_exhausted"
// @Failure     409  {object}  handlers.ErrorResponse  "duplicate_submission"
// @Failure     429  {object}  handlers.ErrorResponse  "cooldown_active or generation_rate_limited"
// @Failure     502  {object}  handlers.ErrorResponse  "generation_failed or ai_response_malformed"
// @Failure     503  {object}  handlers.ErrorResponse  "entitlement_unavailable or generation_unavailable"
// @Failure     504  {object}  handlers.ErrorResponse  "generation_timeout"
// @Router      /roadmaps [post]
func (h *Handlers) CreateRoadmap(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}
	var req RoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in := domain.RoadmapInput{
		CurrentRole:    sanitizeText(req.CurrentRole),
		CareerGoal:     sanitizeText(req.CareerGoal),
		Skills:         sanitizeText(req.Skills),
		Timeline:       sanitizeText(req.Timeline),
		AdditionalInfo: sanitizeText(req.AdditionalInfo),
	}
	res, err := h.gen.GenerateRoadmap(c.Request.Context(), id, in, requestMeta(c))
	if err != nil {
		failService(c, id, domain.ResourceRoadmap, err)
		return
	}
	writeGeneration(c, res)
}

// CreateResumeReview godoc
// @ID          createResumeReview
// @Summary     Review a resume
// @Description Accepts JSON {resume_text, file_name} or a multipart "file" (PDF, DOCX or plain text).
// @Description Gated like roadmap generation against the resume review quota.
// @Tags        Generation
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Param       Idempotency-Key  header    string                        false  "Key for safe retries"
// @Param       body             body      handlers.ResumeReviewRequest  false  "Resume text (JSON form)"
// @Param       file             formData  file                          false  "Resume file (multipart form)"
// @Success     201  {object}  handlers.GenerationResponse  "Generated"
// @Success     200  {object}  handlers.GenerationResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "invalid_input"
// @Failure     403  {object}  handlers.ErrorResponse  "quota_exhausted"
// @Failure     409  {object}  handlers.ErrorResponse  "duplicate_submission"
// @Failure     413  {object}  handlers.ErrorResponse  "file_too_large"
// @Failure     429  {object}  handlers.ErrorResponse  "cooldown_active or generation_rate_limited"
// @Failure     502  {object}  handlers.ErrorResponse  "generation_failed or ai_response_malformed"
// @Failure     503  {object}  handlers.ErrorResponse  "entitlement_unavailable or generation_unavailable"
// @Failure     504  {object}  handlers.ErrorResponse  "generation_timeout"
// @Router      /resume-reviews [post]
func (h *Handlers) CreateResumeReview(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}

	var in domain.ResumeInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var status int
		var err error
		in, status, err = h.readUpload(c)
		if err != nil {
			code := ErrCodeInvalidInput
			if status == http.StatusRequestEntityTooLarge {
				code = ErrCodeFileTooLarge
			}
			fail(c, status, code, err.Error())
			return
		}
	} else {
		var req ResumeReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		in = domain.ResumeInput{FileName: strings.TrimSpace(req.FileName), Text: sanitizeText(req.ResumeText)}
	}

	res, err := h.gen.ReviewResume(c.Request.Context(), id, in, requestMeta(c))
	if err != nil {
		failService(c, id, domain.ResourceResumeReview, err)
		return
	}
	writeGeneration(c, res)
}

// readUpload extracts resume text from the multipart "file" field.
func (h *Handlers) readUpload(c *gin.Context) (domain.ResumeInput, int, error) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.ResumeInput{}, http.StatusBadRequest, errors.New("file is required")
	}
	if fh.Size > limit {
		return domain.ResumeInput{}, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", limit)
	}
	f, err := fh.Open()
	if err != nil {
		return domain.ResumeInput{}, http.StatusBadRequest, errors.New("file could not be read")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return domain.ResumeInput{}, http.StatusBadRequest, errors.New("file could not be read")
	}
	if int64(len(data)) > limit {
		return domain.ResumeInput{}, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", limit)
	}

	mime := extract.DetectMIME(fh.Header.Get("Content-Type"), fh.Filename, data)
	text, err := extract.ResumeText(mime, data)
	if err != nil {
		return domain.ResumeInput{}, http.StatusBadRequest, err
	}
	return domain.ResumeInput{FileName: fh.Filename, Text: sanitizeText(text)}, 0, nil
}

func writeGeneration(c *gin.Context, res *services.GenerationResult) {
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, res)
		return
	}
	ok(c, http.StatusCreated, res)
}
