package handler

import (
	"errors"
	"net/http"

	"github.com/examgate/examgate-backend/internal/middleware"
	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/response"
	"github.com/examgate/examgate-backend/internal/service"
	"github.com/examgate/examgate-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler handles the exam-taking surface: starting sessions,
// navigation, answering, pause/resume, review flags and evaluation.
type SessionHandler struct {
	sessions   *service.ExamSessionService
	exams      *service.ExamService
	evaluation *service.EvaluationService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessions *service.ExamSessionService,
	exams *service.ExamService,
	evaluation *service.EvaluationService,
) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		exams:      exams,
		evaluation: evaluation,
	}
}

// failSessionError maps session state machine errors onto HTTP responses.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
	case errors.Is(err, service.ErrSessionPaused):
		response.Fail(c, http.StatusConflict, response.ErrSessionPaused)
	case errors.Is(err, service.ErrSessionNotPaused):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotPaused)
	case errors.Is(err, service.ErrQuestionNotInSession):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInSession)
	case errors.Is(err, service.ErrNotInReviewList):
		response.Fail(c, http.StatusNotFound, response.ErrNotInReviewList)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// sessionScope pulls the authenticated user and the exam/session route
// params every session endpoint shares.
func sessionScope(c *gin.Context) (examID, sessionID uuid.UUID, userID int, ok bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	sessionID, err = uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	return examID, sessionID, claims.UserID, true
}

// Start godoc
// POST /api/v1/exams/:exam_id/sessions
// Starts an exam session, or returns the caller's existing live one.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetState godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id
// Returns session state including the remaining time. Covers page reloads.
func (h *SessionHandler) GetState(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	session, err := h.sessions.State(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetPaper godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id/paper
// Returns the cached exam payload. Requires a live session for this exam
// so takers cannot download papers they have not started.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	if _, err := h.sessions.State(c.Request.Context(), sessionID, examID, userID); err != nil {
		failSessionError(c, err)
		return
	}

	payload, err := h.exams.GetExamPayload(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotPublished)
		return
	}
	response.Success(c, http.StatusOK, payload)
}

// GetCurrentQuestion godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id/question?direction=next|prev
// Returns the question at the cursor, optionally moving it first.
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	dir := model.NavDirection(c.Query("direction"))
	if dir != "" && dir != model.NavNext && dir != model.NavPrev {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	view, err := h.sessions.GetCurrentQuestion(c.Request.Context(), sessionID, examID, userID, dir)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitAnswer godoc
// POST /api/v1/exams/:exam_id/sessions/:session_id/answers
// Records a selection for one question of the session.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.SubmitAnswer(c.Request.Context(), sessionID, examID, userID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Pause godoc
// POST /api/v1/exams/:exam_id/sessions/:session_id/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	session, err := h.sessions.Pause(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Resume godoc
// POST /api/v1/exams/:exam_id/sessions/:session_id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	session, err := h.sessions.Resume(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetReviewList godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id/review
func (h *SessionHandler) GetReviewList(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	questions, err := h.sessions.GetReviewList(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddToReviewList godoc
// POST /api/v1/exams/:exam_id/sessions/:session_id/review/:question_id
func (h *SessionHandler) AddToReviewList(c *gin.Context) {
	h.mutateReview(c, model.ReviewActionAdd)
}

// RemoveFromReviewList godoc
// DELETE /api/v1/exams/:exam_id/sessions/:session_id/review/:question_id
func (h *SessionHandler) RemoveFromReviewList(c *gin.Context) {
	h.mutateReview(c, model.ReviewActionRemove)
}

func (h *SessionHandler) mutateReview(c *gin.Context, action model.ReviewAction) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var session *service.SessionView
	if action == model.ReviewActionAdd {
		session, err = h.sessions.AddToReviewList(c.Request.Context(), sessionID, examID, userID, questionID)
	} else {
		session, err = h.sessions.RemoveFromReviewList(c.Request.Context(), sessionID, examID, userID, questionID)
	}
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetReviewQuestion godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id/review/:question_id
func (h *SessionHandler) GetReviewQuestion(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.sessions.GetReviewQuestion(c.Request.Context(), sessionID, examID, userID, questionID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Evaluate godoc
// POST /api/v1/exams/:exam_id/sessions/:session_id/evaluate
// Finalizes the session and returns its scored result. Idempotent.
func (h *SessionHandler) Evaluate(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	result, err := h.evaluation.EvaluateExam(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetResultPaper godoc
// GET /api/v1/exams/:exam_id/sessions/:session_id/result
// Returns the graded answer sheet for a finished session.
func (h *SessionHandler) GetResultPaper(c *gin.Context) {
	examID, sessionID, userID, ok := sessionScope(c)
	if !ok {
		return
	}

	result, err := h.evaluation.Paper(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
