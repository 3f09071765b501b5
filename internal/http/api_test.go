package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tasklist/internal/auth"
	"tasklist/internal/repository/sqlite"
	"tasklist/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	if err := userRepo.Init(context.Background()); err != nil {
		t.Fatalf("init user repo: %v", err)
	}
	if err := taskRepo.Init(context.Background()); err != nil {
		t.Fatalf("init task repo: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewUserService(userRepo),
		service.NewTaskService(taskRepo),
		auth.NewTokenService(testSecret),
		nil, "",
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		// raw token, no "Bearer " prefix
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": password}
	if rec := doRequest(t, router, http.MethodPost, "/register", "", creds); rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body)
	}

	rec := doRequest(t, router, http.MethodPost, "/login", "", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

func listTitles(t *testing.T, router *gin.Engine, token string) []string {
	t.Helper()

	rec := doRequest(t, router, http.MethodGet, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: status %d, body %s", rec.Code, rec.Body)
	}

	var tasks []TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}
	return titles
}

func TestRegisterThenLoginReturnsToken(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")
	if token == "" {
		t.Fatal("empty token")
	}
}

func TestLoginFailures(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "alice", "correct-password")

	cases := []struct {
		name  string
		creds map[string]string
	}{
		{"wrong password", map[string]string{"username": "alice", "password": "wrong"}},
		{"unknown user", map[string]string{"username": "ghost", "password": "whatever"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/login", "", tc.creds)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status %d, want 401", rec.Code)
			}
			if bytes.Contains(rec.Body.Bytes(), []byte("token")) {
				t.Errorf("401 response leaked a token: %s", rec.Body)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")

	rec := doRequest(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body)
	}

	titles := listTitles(t, router, token)
	if len(titles) != 1 || titles[0] != "x" {
		t.Fatalf("got titles %v, want [x]", titles)
	}

	rec = doRequest(t, router, http.MethodDelete, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete tasks: status %d, body %s", rec.Code, rec.Body)
	}

	if titles := listTitles(t, router, token); len(titles) != 0 {
		t.Errorf("got titles %v after delete, want none", titles)
	}
}

func TestDeleteWithNoTasksSucceeds(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")

	rec := doRequest(t, router, http.MethodDelete, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete with no tasks: status %d, want 200", rec.Code)
	}
}

func TestOwnerIsolation(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice", "alice-password")
	bobToken := registerAndLogin(t, router, "bob", "bob-password")

	doRequest(t, router, http.MethodPost, "/tasks", aliceToken, map[string]string{"title": "alice task"})
	doRequest(t, router, http.MethodPost, "/tasks", bobToken, map[string]string{"title": "bob task"})

	if titles := listTitles(t, router, aliceToken); len(titles) != 1 || titles[0] != "alice task" {
		t.Errorf("alice sees %v, want [alice task]", titles)
	}
	if titles := listTitles(t, router, bobToken); len(titles) != 1 || titles[0] != "bob task" {
		t.Errorf("bob sees %v, want [bob task]", titles)
	}

	// bob's bulk delete must not touch alice's tasks
	doRequest(t, router, http.MethodDelete, "/tasks", bobToken, nil)
	if titles := listTitles(t, router, aliceToken); len(titles) != 1 {
		t.Errorf("alice sees %v after bob's delete, want her task intact", titles)
	}
}

func TestConcurrentUsersStayIsolated(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice", "alice-password")
	bobToken := registerAndLogin(t, router, "bob", "bob-password")

	const perUser = 5
	var wg sync.WaitGroup
	for i := 0; i < perUser; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := doRequest(t, router, http.MethodPost, "/tasks", aliceToken, map[string]string{"title": "alice"})
			if rec.Code != http.StatusOK {
				t.Errorf("alice create: status %d", rec.Code)
			}
		}()
		go func() {
			defer wg.Done()
			rec := doRequest(t, router, http.MethodPost, "/tasks", bobToken, map[string]string{"title": "bob"})
			if rec.Code != http.StatusOK {
				t.Errorf("bob create: status %d", rec.Code)
			}
		}()
	}
	wg.Wait()

	for _, title := range listTitles(t, router, aliceToken) {
		if title != "alice" {
			t.Errorf("alice sees foreign task %q", title)
		}
	}
	bobTitles := listTitles(t, router, bobToken)
	if len(bobTitles) != perUser {
		t.Errorf("bob has %d tasks, want %d", len(bobTitles), perUser)
	}
	for _, title := range bobTitles {
		if title != "bob" {
			t.Errorf("bob sees foreign task %q", title)
		}
	}
}

func TestProtectedRoutesRejectBadAuth(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")

	otherSecret, err := auth.NewTokenService("other-secret").Issue("alice")
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not-a-token"},
		{"wrong secret", otherSecret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
				rec := doRequest(t, router, method, "/tasks", tc.token, map[string]string{"title": "sneaky"})
				if rec.Code != http.StatusUnauthorized {
					t.Errorf("%s /tasks: status %d, want 401", method, rec.Code)
				}
			}
		})
	}

	// none of the rejected writes may have reached the store
	if titles := listTitles(t, router, token); len(titles) != 0 {
		t.Errorf("rejected requests left side effects: %v", titles)
	}
}

func TestBearerPrefixedTokenIsRejected(t *testing.T) {
	// the header value is the token itself; a scheme prefix makes it invalid
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")

	rec := doRequest(t, router, http.MethodGet, "/tasks", "Bearer "+token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestDuplicateRegistrationIsAStoreError(t *testing.T) {
	router := newTestRouter(t)
	creds := map[string]string{"username": "alice", "password": "first"}

	if rec := doRequest(t, router, http.MethodPost, "/register", "", creds); rec.Code != http.StatusOK {
		t.Fatalf("first register: status %d", rec.Code)
	}

	creds["password"] = "second"
	rec := doRequest(t, router, http.MethodPost, "/register", "", creds)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("duplicate register: status %d, want 500", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Server Error")) {
		t.Errorf("duplicate register leaked detail: %s", rec.Body)
	}
}

func TestEmptyTitleIsAccepted(t *testing.T) {
	// presence is not validated; an empty body creates an empty-titled task
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "hunter2again")

	rec := doRequest(t, router, http.MethodPost, "/tasks", token, map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("create with empty body: status %d", rec.Code)
	}

	titles := listTitles(t, router, token)
	if len(titles) != 1 || titles[0] != "" {
		t.Errorf("got titles %v, want one empty title", titles)
	}
}

func TestCatchAllLiveness(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/nope"},
		{http.MethodPut, "/tasks"}, // unknown method falls through too
	}
	for _, tc := range cases {
		rec := doRequest(t, router, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s %s: status %d, want 200", tc.method, tc.path, rec.Code)
		}
		if got := rec.Body.String(); got != "Server is running." {
			t.Errorf("%s %s: body %q, want liveness message", tc.method, tc.path, got)
		}
	}
}
