package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/identity"
)

const bootstrapHeader = "X-Bootstrap-Secret"

// AuthHandler issues tokens for existing users to holders of the bootstrap
// secret. Password login is handled by the identity service.
type AuthHandler struct {
	admin      *app.AdminService
	issuer     *identity.Issuer
	secret     string
	cookieName string
	setCookie  bool
	log        logrus.FieldLogger
}

type bootstrapResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

func NewAuthHandler(admin *app.AdminService, issuer *identity.Issuer, secret, cookieName string, setCookie bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		admin:      admin,
		issuer:     issuer,
		secret:     secret,
		cookieName: cookieName,
		setCookie:  setCookie,
		log:        log,
	}
}

func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || h.issuer == nil {
		writeError(w, r, http.StatusNotFound, "bootstrap disabled")
		return
	}
	var req bootstrapRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	given := r.Header.Get(bootstrapHeader)
	if given == "" {
		given = req.Secret
	}
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.secret)) != 1 {
		writeErr(w, r, h.log, domain.ErrForbidden)
		return
	}

	user, err := h.admin.User(r.Context(), req.UserID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if !user.IsActive {
		writeErr(w, r, h.log, domain.ErrForbidden)
		return
	}
	token, exp, err := h.issuer.Issue(user)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if h.setCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    token,
			Path:     "/",
			Expires:  exp,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	h.log.WithField("user_id", user.ID).WithField("is_admin", user.IsAdmin).Info("bootstrap token issued")
	writeOK(w, r, http.StatusOK, bootstrapResponse{Token: token, ExpiresAt: exp, User: user})
}
