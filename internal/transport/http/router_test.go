package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/identity"
	"quiz-engine-service/internal/infra/memory"
)

const testSecret = "router-test-secret"

type fixture struct {
	server   *httptest.Server
	store    *memory.Store
	category domain.Category
	player   domain.User
	admin    domain.User
	issuer   *identity.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	cat := store.AddCategory("Math")
	for i := 1; i <= 6; i++ {
		store.AddQuestion(cat.ID, fmt.Sprintf("What is %d + %d?", i, i), true,
			domain.Choice{Description: fmt.Sprint(2 * i), IsCorrect: true},
			domain.Choice{Description: fmt.Sprint(2*i + 1)},
			domain.Choice{Description: fmt.Sprint(2*i - 1)},
		)
	}
	admin := store.AddUser(domain.User{Email: "admin@example.com", Firstname: "Ada", IsActive: true, IsAdmin: true})
	player := store.AddUser(domain.User{Email: "player@example.com", Firstname: "Pat", Lastname: "Lee", IsActive: true})

	log := logrus.New()
	log.SetOutput(io.Discard)

	pool := memory.NewQuestionPool(store, time.Minute)
	quiz := app.NewQuizService(store, app.NewSampler(pool, app.DefaultSampleSize), memory.NewIssuedSets(time.Hour), log)
	authCfg := identity.Config{Secret: testSecret}
	issuer, err := identity.NewIssuer(authCfg)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	handler := NewRouter(RouterConfig{
		Quiz:            quiz,
		Editor:          app.NewQuestionEditor(store, pool),
		Admin:           app.NewAdminService(store),
		Verifier:        identity.NewVerifier(authCfg),
		Issuer:          issuer,
		BootstrapSecret: "let-me-in",
		Log:             log,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &fixture{server: server, store: store, category: cat, player: player, admin: admin, issuer: issuer}
}

func (f *fixture) token(t *testing.T, u domain.User) string {
	t.Helper()
	tok, _, err := f.issuer.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

type apiResponse struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (int, apiResponse, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
	}
	return resp.StatusCode, out, string(raw)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	status, resp, _ := f.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || !resp.OK {
		t.Fatalf("expected healthy, got %d %+v", status, resp)
	}
	if resp.Meta.RequestID == "" {
		t.Fatalf("expected request id in meta")
	}
}

func TestQuizRequiresToken(t *testing.T) {
	f := newFixture(t)
	status, resp, _ := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/quiz?categoryId=%d", f.category.ID), "", nil)
	if status != http.StatusUnauthorized || resp.OK || resp.Error == nil || resp.Error.Code != "unauthorized" {
		t.Fatalf("expected 401 envelope, got %d %+v", status, resp)
	}
}

func TestQuestionsHideCorrectnessAndStayStableOnReload(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, f.player)
	path := fmt.Sprintf("/api/v1/quiz?categoryId=%d", f.category.ID)

	status, resp, raw := f.do(t, http.MethodGet, path, tok, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", status, raw)
	}
	if strings.Contains(raw, "isCorrect") || strings.Contains(raw, "is_correct") {
		t.Fatalf("sampled questions leaked correctness: %s", raw)
	}
	var first []domain.SampledQuestion
	if err := json.Unmarshal(resp.Data, &first); err != nil {
		t.Fatalf("decode questions: %v", err)
	}
	if len(first) != app.DefaultSampleSize {
		t.Fatalf("expected %d questions, got %d", app.DefaultSampleSize, len(first))
	}

	_, resp, _ = f.do(t, http.MethodGet, path, tok, nil)
	var second []domain.SampledQuestion
	_ = json.Unmarshal(resp.Data, &second)
	for i := range first {
		if first[i].QuestionID != second[i].QuestionID {
			t.Fatalf("expected the issued set on reload, got different question at %d", i)
		}
	}
}

func TestQuestionsForEmptyCategory(t *testing.T) {
	f := newFixture(t)
	empty := f.store.AddCategory("Empty")
	status, resp, raw := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/quiz?categoryId=%d", empty.ID), f.token(t, f.player), nil)
	if status != http.StatusOK || !resp.OK {
		t.Fatalf("expected 200, got %d %s", status, raw)
	}
	if string(resp.Data) != "[]" {
		t.Fatalf("expected empty list, got %s", resp.Data)
	}
}

func TestSubmitThenReviewResult(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, f.player)

	q1, _ := f.store.Question(context.Background(), 1)
	q2, _ := f.store.Question(context.Background(), 2)
	body := map[string]interface{}{
		"categoryId": f.category.ID,
		"answers": []map[string]int64{
			{"questionId": q1.ID, "choiceId": q1.Choices[0].ID},
			{"questionId": q2.ID, "choiceId": q2.Choices[1].ID},
		},
		"timeStart": "2025-01-01T10:00:00Z",
		"timeEnd":   "2025-01-01T10:02:30Z",
	}
	status, resp, raw := f.do(t, http.MethodPost, "/api/v1/quiz", tok, body)
	if status != http.StatusOK {
		t.Fatalf("submit: %d %s", status, raw)
	}
	var result domain.SubmissionResult
	_ = json.Unmarshal(resp.Data, &result)
	if result.Score != 0.5 || result.DurationSeconds != 150 {
		t.Fatalf("unexpected result %+v", result)
	}

	status, resp, raw = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/quiz/result/%d", result.QuizID), tok, nil)
	if status != http.StatusOK {
		t.Fatalf("result: %d %s", status, raw)
	}
	var view domain.ResultView
	_ = json.Unmarshal(resp.Data, &view)
	if len(view.Items) != 6 || view.CorrectnessRate != 0.5 || view.Quiz.QuestionCount != 2 {
		t.Fatalf("unexpected view %+v", view)
	}

	status, resp, _ = f.do(t, http.MethodGet, "/api/v1/quiz/result", tok, nil)
	var mine []domain.AttemptHeader
	_ = json.Unmarshal(resp.Data, &mine)
	if status != http.StatusOK || len(mine) != 1 || mine[0].QuizID != result.QuizID {
		t.Fatalf("expected one attempt in history, got %d %+v", status, mine)
	}
}

func TestSubmitRejectsInvertedTimes(t *testing.T) {
	f := newFixture(t)
	body := map[string]interface{}{
		"categoryId": f.category.ID,
		"answers":    []map[string]int64{},
		"timeStart":  "2025-01-01T10:00:00Z",
		"timeEnd":    "2025-01-01T09:00:00Z",
	}
	status, resp, _ := f.do(t, http.MethodPost, "/api/v1/quiz", f.token(t, f.player), body)
	if status != http.StatusBadRequest || resp.Error.Code != "invalid_request" {
		t.Fatalf("expected 400, got %d %+v", status, resp)
	}
	if n := len(f.store.Attempts()); n != 0 {
		t.Fatalf("expected no attempts, got %d", n)
	}
}

func TestResultUnknownQuiz(t *testing.T) {
	f := newFixture(t)
	status, resp, _ := f.do(t, http.MethodGet, "/api/v1/quiz/result/9999", f.token(t, f.player), nil)
	if status != http.StatusNotFound || resp.Error.Code != "not_found" {
		t.Fatalf("expected 404, got %d %+v", status, resp)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	status, _, _ := f.do(t, http.MethodGet, "/api/v1/admin/questions", f.token(t, f.player), nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for player, got %d", status)
	}
	status, resp, _ := f.do(t, http.MethodGet, "/api/v1/admin/questions?includeChoices=true&limit=2", f.token(t, f.admin), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
	var qs []domain.Question
	_ = json.Unmarshal(resp.Data, &qs)
	if len(qs) != 2 || len(qs[0].Choices) != 3 {
		t.Fatalf("unexpected listing %+v", qs)
	}
}

func TestAdminCreateAndReplaceQuestion(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, f.admin)

	bad := map[string]interface{}{
		"categoryId":  f.category.ID,
		"description": "Two right answers?",
		"choices": []map[string]interface{}{
			{"description": "a", "isCorrect": true},
			{"description": "b", "isCorrect": true},
		},
	}
	if status, _, _ := f.do(t, http.MethodPost, "/api/v1/admin/questions", tok, bad); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for two correct choices, got %d", status)
	}

	good := map[string]interface{}{
		"categoryId":  f.category.ID,
		"description": "Largest planet?",
		"choices": []map[string]interface{}{
			{"description": "Jupiter", "isCorrect": true},
			{"description": "Mars"},
		},
	}
	status, resp, raw := f.do(t, http.MethodPost, "/api/v1/admin/questions", tok, good)
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, raw)
	}
	var created struct {
		QuestionID int64 `json:"questionId"`
	}
	_ = json.Unmarshal(resp.Data, &created)

	stored, err := f.store.Question(context.Background(), created.QuestionID)
	if err != nil {
		t.Fatalf("load created: %v", err)
	}
	replace := map[string]interface{}{
		"categoryId":  f.category.ID,
		"description": "Largest planet in the solar system?",
		"choices": []map[string]interface{}{
			{"choiceId": stored.Choices[1].ID, "description": "Mars", "isCorrect": true},
			{"description": "Saturn"},
		},
	}
	status, resp, raw = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/questions/%d", created.QuestionID), tok, replace)
	if status != http.StatusOK {
		t.Fatalf("replace: %d %s", status, raw)
	}
	var q domain.Question
	_ = json.Unmarshal(resp.Data, &q)
	if len(q.Choices) != 3 {
		t.Fatalf("expected omitted choice kept, got %d choices", len(q.Choices))
	}
	correct := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct++
			if c.ID != stored.Choices[1].ID {
				t.Fatalf("expected Mars to be the correct choice, got %+v", c)
			}
		}
	}
	if correct != 1 {
		t.Fatalf("expected exactly one correct choice, got %d", correct)
	}
}

func TestAdminUserStatus(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, f.admin)
	path := fmt.Sprintf("/api/v1/admin/users/%d/status", f.player.ID)

	if status, _, _ := f.do(t, http.MethodPatch, path, tok, map[string]string{"status": "banned"}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", status)
	}
	status, resp, _ := f.do(t, http.MethodPatch, path, tok, map[string]string{"status": "suspended"})
	var st domain.UserStatus
	_ = json.Unmarshal(resp.Data, &st)
	if status != http.StatusOK || st.IsActive {
		t.Fatalf("expected suspended user, got %d %+v", status, st)
	}
}

func TestBootstrapIssuesToken(t *testing.T) {
	f := newFixture(t)

	status, _, _ := f.do(t, http.MethodPost, "/api/v1/auth/bootstrap", "", map[string]interface{}{"userId": f.admin.ID, "secret": "wrong"})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong secret, got %d", status)
	}

	status, resp, raw := f.do(t, http.MethodPost, "/api/v1/auth/bootstrap", "", map[string]interface{}{"userId": f.admin.ID, "secret": "let-me-in"})
	if status != http.StatusOK {
		t.Fatalf("bootstrap: %d %s", status, raw)
	}
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(resp.Data, &out)

	if status, _, _ := f.do(t, http.MethodGet, "/api/v1/admin/users", out.Token, nil); status != http.StatusOK {
		t.Fatalf("expected bootstrapped admin token to work, got %d", status)
	}
}
