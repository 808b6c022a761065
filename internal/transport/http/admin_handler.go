package http

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
)

// AdminHandler serves question authoring and the administrative listings.
type AdminHandler struct {
	editor *app.QuestionEditor
	admin  *app.AdminService
	log    logrus.FieldLogger
}

func NewAdminHandler(editor *app.QuestionEditor, admin *app.AdminService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{editor: editor, admin: admin, log: log}
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	questions, err := h.editor.List(r.Context(), domain.QuestionFilter{
		CategoryID:     categoryID,
		Query:          strings.TrimSpace(r.URL.Query().Get("q")),
		IncludeChoices: queryBool(r, "includeChoices"),
		Page:           page,
	})
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, questions)
}

func (h *AdminHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionID")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	q, err := h.editor.Get(r.Context(), questionID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, q)
}

func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	questionID, err := h.editor.Create(r.Context(), domain.NewQuestion{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Choices:     toChoiceInputs(req.Choices),
	})
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusCreated, map[string]int64{"questionId": questionID})
}

// ReplaceQuestion updates a question and upserts its choices, then returns
// the stored state.
func (h *AdminHandler) ReplaceQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionID")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	var req replaceQuestionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	err = h.editor.Replace(r.Context(), domain.QuestionReplacement{
		QuestionID:  questionID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		IsActive:    active,
		Choices:     toChoiceInputs(req.Choices),
	})
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	q, err := h.editor.Get(r.Context(), questionID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, q)
}

func (h *AdminHandler) SetQuestionStatus(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionID")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	var req questionStatusRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	status, err := h.editor.SetActive(r.Context(), questionID, *req.IsActive)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, status)
}

func (h *AdminHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	attempts, err := h.admin.ListAttempts(r.Context(), domain.AttemptFilter{
		CategoryID: categoryID,
		UserID:     userID,
		Page:       page,
	})
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, attempts)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, users)
}

func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	var req userStatusRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	status, err := h.admin.SetUserStatus(r.Context(), userID, req.Status)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, status)
}
