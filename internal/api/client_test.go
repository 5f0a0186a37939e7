package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itask-cli/internal/api"
	"itask-cli/internal/apitest"
	"itask-cli/internal/model"
)

func startBackend(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.Start()
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin_ReturnsTokenAndRole(t *testing.T) {
	srv := startBackend(t)
	srv.AddUser("Ada Lovelace", "ada@example.com", "secret1", "admin")

	c := api.New(srv.URL())
	res, err := c.Login(context.Background(), api.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
}

func TestLogin_BadPasswordCarriesServerMessage(t *testing.T) {
	srv := startBackend(t)
	srv.AddUser("Ada", "ada@example.com", "secret1", "")

	c := api.New(srv.URL())
	_, err := c.Login(context.Background(), api.LoginRequest{Email: "ada@example.com", Password: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", api.ServerMessage(err, "Login failed"))
}

func TestLogin_SuccessFalseWith200IsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer ts.Close()

	_, err := api.New(ts.URL).Login(context.Background(), api.LoginRequest{Email: "a@b.co", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Login failed", api.ServerMessage(err, "other"))
}

func TestLogin_RejectsEmptyFieldsLocally(t *testing.T) {
	srv := startBackend(t)
	_, err := api.New(srv.URL()).Login(context.Background(), api.LoginRequest{Email: "a@b.co"})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["Password"])
	assert.Zero(t, srv.Count(http.MethodPost, "/auth/login"))
}

func TestSignup_DuplicateIsConflict(t *testing.T) {
	srv := startBackend(t)
	srv.AddUser("Ada", "ada@example.com", "secret1", "")

	_, err := api.New(srv.URL()).Signup(context.Background(), api.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "Secret1!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrConflict)
}

func TestSignup_FillsNameFromRequest(t *testing.T) {
	srv := startBackend(t)
	res, err := api.New(srv.URL()).Signup(context.Background(), api.SignupRequest{Name: "Grace", Email: "grace@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", res.User.Email)
	assert.Equal(t, "Grace", res.User.Name)
	assert.Equal(t, model.RoleUser, res.User.Role)
}

func TestGoogleLogin(t *testing.T) {
	srv := startBackend(t)
	srv.RegisterGoogleToken("id-token-1", "g@example.com")
	c := api.New(srv.URL())

	res, err := c.GoogleLogin(context.Background(), "id-token-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "g@example.com", res.User.Email)

	_, err = c.GoogleLogin(context.Background(), "bogus")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestTodos_CRUD(t *testing.T) {
	srv := startBackend(t)
	uid := srv.AddUser("Ada", "ada@example.com", "secret1", "")
	c := api.New(srv.URL(), api.WithTokens(api.StaticToken(srv.TokenFor(uid))))
	ctx := context.Background()

	added, err := c.AddTodo(ctx, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", added.Text)
	assert.False(t, added.Completed)
	assert.NotEmpty(t, added.ID)

	_, err = c.AddTodo(ctx, "buy milk")
	assert.ErrorIs(t, err, api.ErrConflict)

	edited, err := c.EditTodo(ctx, added.ID, "Buy oat milk", true)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", edited.Text)
	assert.True(t, edited.Completed)

	list, err := c.ListTodos(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.StateCompleted, list[0].State())

	require.NoError(t, c.DeleteTodo(ctx, added.ID))
	err = c.DeleteTodo(ctx, added.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestProtectedCallsNeedToken(t *testing.T) {
	srv := startBackend(t)
	_, err := api.New(srv.URL()).ListTodos(context.Background())
	assert.ErrorIs(t, err, api.ErrNoToken)
	assert.Empty(t, srv.Requests())
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	srv := startBackend(t)
	uid := srv.AddUser("Ada", "ada@example.com", "secret1", "")
	c := api.New(srv.URL(), api.WithTokens(api.StaticToken(srv.ExpiredTokenFor(uid))))
	_, err := c.ListTodos(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"users":[]}`))
	}))
	defer ts.Close()

	_, err := api.New(ts.URL, api.WithTokens(api.StaticToken("tok"))).ListTodos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestFeedback(t *testing.T) {
	srv := startBackend(t)
	uid := srv.AddUser("Ada", "ada@example.com", "secret1", "")
	c := api.New(srv.URL(), api.WithTokens(api.StaticToken(srv.TokenFor(uid))))
	ctx := context.Background()

	st, err := c.UserFeedback(ctx)
	require.NoError(t, err)
	assert.False(t, st.HasFeedback)

	var ve *api.ValidationError
	err = c.AddFeedback(ctx, api.FeedbackRequest{Suggestion: "more", Rating: 6})
	require.ErrorAs(t, err, &ve)

	require.NoError(t, c.AddFeedback(ctx, api.FeedbackRequest{Suggestion: "more colors", Rating: 4}))
	st, err = c.UserFeedback(ctx)
	require.NoError(t, err)
	assert.True(t, st.HasFeedback)
	assert.Equal(t, 4, st.Rating)
}

func TestAdmin(t *testing.T) {
	srv := startBackend(t)
	admin := srv.AddUser("Root", "root@example.com", "secret1", "admin")
	bob := srv.AddUser("Bob", "bob@example.com", "secret1", "")
	srv.SeedFeedback(bob, "nice", 5)
	srv.SeedFeedback(admin, "ok", 2)
	c := api.New(srv.URL(), api.WithTokens(api.StaticToken(srv.TokenFor(admin))))
	ctx := context.Background()

	stats, err := c.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{TotalUsers: 2, TotalAdmins: 1, TotalFeedbacks: 2, AvgRating: 3.5}, stats)

	users, err := c.AdminUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, c.SetUserRole(ctx, bob, model.RoleAdmin))
	assert.Equal(t, "admin", srv.UserRole(bob))

	fbs, err := c.AdminFeedbacks(ctx)
	require.NoError(t, err)
	require.Len(t, fbs, 2)
	for _, f := range fbs {
		assert.NotEmpty(t, f.UserEmail)
	}

	require.NoError(t, c.DeleteFeedback(ctx, fbs[0].ID))
	require.NoError(t, c.DeleteUser(ctx, bob))
	users, err = c.AdminUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAdmin_ForbiddenForPlainUser(t *testing.T) {
	srv := startBackend(t)
	uid := srv.AddUser("Bob", "bob@example.com", "secret1", "")
	_, err := api.New(srv.URL(), api.WithTokens(api.StaticToken(srv.TokenFor(uid)))).AdminStats(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestSetUserRole_RejectsUnknownRole(t *testing.T) {
	err := api.New("http://127.0.0.1:1", api.WithTokens(api.StaticToken("t"))).SetUserRole(context.Background(), "x", model.Role("root"))
	var ve *api.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestIsNetwork(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := api.New(url, api.WithTokens(api.StaticToken("t"))).ListTodos(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsNetwork(err))
	assert.False(t, api.IsNetwork(&api.APIError{Status: 500}))
	assert.False(t, api.IsNetwork(nil))
}

func TestStatsAcceptsNumericAverage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalUsers":3,"totalAdmins":1,"totalFeedbacks":0,"avgRating":null}`))
	}))
	defer ts.Close()
	stats, err := api.New(ts.URL, api.WithTokens(api.StaticToken("t"))).AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Zero(t, stats.AvgRating)
}
