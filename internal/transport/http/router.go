package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/identity"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Quiz     *app.QuizService
	Editor   *app.QuestionEditor
	Admin    *app.AdminService
	Verifier *identity.Verifier
	// Issuer may be nil when token bootstrap is disabled.
	Issuer          *identity.Issuer
	BootstrapSecret string
	CookieName      string
	CookieFallback  bool
	CORSOrigins     []string
	Log             logrus.FieldLogger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = identity.DefaultCookieName
	}

	quiz := NewQuizHandler(cfg.Quiz, log)
	admin := NewAdminHandler(cfg.Editor, cfg.Admin, log)
	auth := NewAuthHandler(cfg.Admin, cfg.Issuer, cfg.BootstrapSecret, cfg.CookieName, cfg.CookieFallback, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", bootstrapHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/bootstrap", auth.Bootstrap)

		api.Group(func(secure chi.Router) {
			secure.Use(authenticate(cfg.Verifier, log))
			secure.Get("/categories", quiz.Categories)
			secure.Get("/quiz", quiz.Questions)
			secure.Post("/quiz", quiz.Submit)
			secure.Get("/quiz/result", quiz.ListMine)
			secure.Get("/quiz/result/{quizID}", quiz.Result)

			secure.Group(func(adm chi.Router) {
				adm.Use(requireAdmin(log))
				adm.Get("/admin/questions", admin.ListQuestions)
				adm.Post("/admin/questions", admin.CreateQuestion)
				adm.Get("/admin/questions/{questionID}", admin.GetQuestion)
				adm.Put("/admin/questions/{questionID}", admin.ReplaceQuestion)
				adm.Patch("/admin/questions/{questionID}/status", admin.SetQuestionStatus)
				adm.Get("/admin/quizzes", admin.ListQuizzes)
				adm.Get("/admin/users", admin.ListUsers)
				adm.Patch("/admin/users/{userID}/status", admin.SetUserStatus)
			})
		})
	})

	return r
}
