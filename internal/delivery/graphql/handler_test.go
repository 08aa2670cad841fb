package graphql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tsuki42/reddit-clone/internal/application/services"
	"github.com/tsuki42/reddit-clone/internal/application/validation"
	"github.com/tsuki42/reddit-clone/internal/delivery/graphql"
	custommw "github.com/tsuki42/reddit-clone/internal/delivery/middleware"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/credentials"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/events"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/kv"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/postgres"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/ratelimit"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/session"
)

type testApp struct {
	e      *echo.Echo
	mailer *mailRecorder
}

type mailRecorder struct {
	bodies []string
}

func (m *mailRecorder) Send(_ context.Context, _, _, html string) error {
	m.bodies = append(m.bodies, html)
	return nil
}

func memoryDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(memoryDSN(t)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&postgres.UserModel{}))

	store := kv.NewMemoryStore()
	manager := session.NewManager(kv.Namespaced(store, "sess:"), time.Hour, false)
	mailer := &mailRecorder{}

	auth := services.NewAuthService(
		postgres.NewUserRepository(db),
		kv.Namespaced(store, "reset:"),
		credentials.NewBcryptHasher(),
		mailer,
		ratelimit.NewPerKey(rate.Every(time.Minute), 10),
		events.NoopPublisher{},
		validation.DefaultRegisterRules,
		"http://localhost:3000",
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	)

	e := echo.New()
	e.Use(custommw.Session(manager))
	e.POST("/graphql", echo.WrapHandler(graphql.NewHandler(auth)))

	return &testApp{e: e, mailer: mailer}
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (app *testApp) do(t *testing.T, query string, vars map[string]any, cookies []*http.Cookie) (*gqlResponse, *httptest.ResponseRecorder) {
	t.Helper()

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp, rec
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

type userResponse struct {
	User *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeUserResponse(t *testing.T, raw json.RawMessage) userResponse {
	t.Helper()
	var ur userResponse
	require.NoError(t, json.Unmarshal(raw, &ur))
	return ur
}

const registerMutation = `
	mutation Register($email: String!, $username: String!, $password: String!) {
		register(options: { email: $email, username: $username, password: $password }) {
			user { id username email }
			errors { field message }
		}
	}`

const loginMutation = `
	mutation Login($usernameOrEmail: String!, $password: String!) {
		login(usernameOrEmail: $usernameOrEmail, password: $password) {
			user { id username email }
			errors { field message }
		}
	}`

const meQuery = `query { me { id username email } }`

func register(t *testing.T, app *testApp, username, email, password string) (*gqlResponse, []*http.Cookie) {
	resp, rec := app.do(t, registerMutation, map[string]any{
		"email": email, "username": username, "password": password,
	}, nil)
	return resp, sessionCookies(rec)
}

func TestRegisterAndMe(t *testing.T) {
	app := newTestApp(t)

	resp, cookies := register(t, app, "alice", "alice@example.com", "hunter2")
	require.Empty(t, resp.Errors)

	ur := decodeUserResponse(t, resp.Data["register"])
	require.Empty(t, ur.Errors)
	require.NotNil(t, ur.User)
	assert.Equal(t, "alice", ur.User.Username)
	require.NotEmpty(t, cookies, "register must issue the session cookie")

	meResp, _ := app.do(t, meQuery, nil, cookies)
	require.Empty(t, meResp.Errors)
	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(meResp.Data["me"], &me))
	assert.Equal(t, "alice", me.Username)
}

func TestMeWithoutSessionIsNull(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, meQuery, nil, nil)
	require.Empty(t, resp.Errors)
	assert.Equal(t, "null", string(resp.Data["me"]))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)

	_, _ = register(t, app, "alice", "alice@example.com", "hunter2")
	resp, _ := register(t, app, "alice", "second@example.com", "hunter2")

	ur := decodeUserResponse(t, resp.Data["register"])
	require.Len(t, ur.Errors, 1)
	assert.Equal(t, "username", ur.Errors[0].Field)
	assert.Equal(t, "username already taken", ur.Errors[0].Message)
	assert.Nil(t, ur.User)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	resp, rec := app.do(t, registerMutation, map[string]any{
		"email": "nope", "username": "al", "password": "x",
	}, nil)
	require.Empty(t, resp.Errors)

	ur := decodeUserResponse(t, resp.Data["register"])
	assert.Len(t, ur.Errors, 3)
	assert.Nil(t, ur.User)
	assert.Empty(t, sessionCookies(rec))
}

func TestLoginBranchesAndLogout(t *testing.T) {
	app := newTestApp(t)
	_, _ = register(t, app, "alice", "alice@example.com", "hunter2")

	// By email.
	resp, rec := app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "alice@example.com", "password": "hunter2",
	}, nil)
	ur := decodeUserResponse(t, resp.Data["login"])
	require.NotNil(t, ur.User)
	require.NotEmpty(t, sessionCookies(rec))

	// By username.
	resp, rec = app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "alice", "password": "hunter2",
	}, nil)
	ur = decodeUserResponse(t, resp.Data["login"])
	require.NotNil(t, ur.User)
	cookies := sessionCookies(rec)
	require.NotEmpty(t, cookies)

	// Wrong password.
	resp, rec = app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "alice", "password": "wrong",
	}, nil)
	ur = decodeUserResponse(t, resp.Data["login"])
	require.Len(t, ur.Errors, 1)
	assert.Equal(t, "password", ur.Errors[0].Field)
	assert.Empty(t, sessionCookies(rec))

	// Unknown account.
	resp, _ = app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "ghost", "password": "hunter2",
	}, nil)
	ur = decodeUserResponse(t, resp.Data["login"])
	require.Len(t, ur.Errors, 1)
	assert.Equal(t, "usernameOrEmail", ur.Errors[0].Field)

	// Logout, then me is null on the same session.
	logoutResp, _ := app.do(t, `mutation { logout }`, nil, cookies)
	assert.Equal(t, "true", string(logoutResp.Data["logout"]))

	meResp, _ := app.do(t, meQuery, nil, cookies)
	assert.Equal(t, "null", string(meResp.Data["me"]))
}

var resetLinkRe = regexp.MustCompile(`/change-password/([0-9a-f-]+)`)

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	_, _ = register(t, app, "alice", "alice@example.com", "hunter2")

	// Unknown email reports true and sends nothing.
	resp, _ := app.do(t, `mutation { forgotPassword(email: "ghost@example.com") }`, nil, nil)
	assert.Equal(t, "true", string(resp.Data["forgotPassword"]))
	assert.Empty(t, app.mailer.bodies)

	// Known email stores a token and mails the link.
	resp, _ = app.do(t, `mutation { forgotPassword(email: "alice@example.com") }`, nil, nil)
	assert.Equal(t, "true", string(resp.Data["forgotPassword"]))
	require.Len(t, app.mailer.bodies, 1)

	matches := resetLinkRe.FindStringSubmatch(app.mailer.bodies[0])
	require.Len(t, matches, 2)
	token := matches[1]

	changeMutation := `
		mutation Change($token: String!, $newPassword: String!) {
			changePassword(token: $token, newPassword: $newPassword) {
				user { id username }
				errors { field message }
			}
		}`

	// Too-short replacement is rejected without consuming the token.
	resp, _ = app.do(t, changeMutation, map[string]any{"token": token, "newPassword": "ab"}, nil)
	ur := decodeUserResponse(t, resp.Data["changePassword"])
	require.Len(t, ur.Errors, 1)
	assert.Equal(t, "newPassword", ur.Errors[0].Field)

	// Valid change succeeds and logs the caller in.
	resp, rec := app.do(t, changeMutation, map[string]any{"token": token, "newPassword": "correct horse"}, nil)
	ur = decodeUserResponse(t, resp.Data["changePassword"])
	require.Empty(t, ur.Errors)
	require.NotNil(t, ur.User)
	require.NotEmpty(t, sessionCookies(rec))

	// The token is single-use.
	resp, _ = app.do(t, changeMutation, map[string]any{"token": token, "newPassword": "third try"}, nil)
	ur = decodeUserResponse(t, resp.Data["changePassword"])
	require.Len(t, ur.Errors, 1)
	assert.Equal(t, "token", ur.Errors[0].Field)
	assert.Equal(t, "token expired", ur.Errors[0].Message)

	// Old password no longer works, the new one does.
	resp, _ = app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "alice", "password": "hunter2",
	}, nil)
	ur = decodeUserResponse(t, resp.Data["login"])
	require.Len(t, ur.Errors, 1)

	resp, _ = app.do(t, loginMutation, map[string]any{
		"usernameOrEmail": "alice", "password": "correct horse",
	}, nil)
	ur = decodeUserResponse(t, resp.Data["login"])
	require.NotNil(t, ur.User)
}
