package http

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/identity"
)

// QuizHandler serves the quiz-taking endpoints.
type QuizHandler struct {
	service *app.QuizService
	log     logrus.FieldLogger
}

func NewQuizHandler(service *app.QuizService, log logrus.FieldLogger) *QuizHandler {
	return &QuizHandler{service: service, log: log}
}

func (h *QuizHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, categories)
}

// Questions returns the question set for ?categoryId=. An empty category
// yields an empty list.
func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if categoryID == nil {
		writeErr(w, r, h.log, fmt.Errorf("%w: categoryId is required", domain.ErrValidation))
		return
	}
	questions, err := h.service.Questions(r.Context(), id.UserID, *categoryID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, questions)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	result, err := h.service.Submit(r.Context(), req.toDomain(id.UserID))
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, result)
}

func (h *QuizHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	page, err := queryPage(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	attempts, err := h.service.ListForUser(r.Context(), id.UserID, page)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, attempts)
}

// Result returns the review of any attempt to any authenticated caller.
// TODO: restrict to the attempt owner and admins once clients stop sharing result links.
func (h *QuizHandler) Result(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	view, err := h.service.Result(r.Context(), quizID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeOK(w, r, http.StatusOK, view)
}
