package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeromedesantos12/app-circle/internal/handlers/testutil"
)

func TestAuthRegisterLoginVerifyLogout(t *testing.T) {
	env := testutil.NewEnv(t)

	registered := env.Register("Alice Example", "alice@example.com", "AuthPassw0rd!")
	require.Equal(t, "alice", registered.Username)

	session, logged := env.Login("alice@example.com", "AuthPassw0rd!")
	require.Equal(t, registered.ID, logged.ID)
	require.True(t, session.HttpOnly)

	verify := env.Request(http.MethodGet, "/api/v1/verify", nil, session)
	require.Equal(t, http.StatusOK, verify.Code, verify.Body.String())
	var identity map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, verify).Data, &identity)
	require.Equal(t, registered.ID, identity["id"])
	require.Equal(t, "alice@example.com", identity["email"])

	logout := env.Request(http.MethodPost, "/api/v1/logout", nil, session)
	require.Equal(t, http.StatusOK, logout.Code)
	cleared := testutil.SessionCookie(t, logout)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)

	unauth := env.Request(http.MethodGet, "/api/v1/verify", nil, nil)
	require.Equal(t, http.StatusUnauthorized, unauth.Code)
}

func TestLoginByUsernameAndRejectedCredentials(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Register("Bob Builder", "bob@example.com", "AuthPassw0rd!")

	session, logged := env.Login("bob", "AuthPassw0rd!")
	require.NotNil(t, session)
	require.Equal(t, "bob", logged.Username)

	bad := env.Request(http.MethodPost, "/api/v1/login", map[string]string{
		"identifier": "bob",
		"password":   "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, bad.Code)
	require.Equal(t, "INVALID_CREDENTIALS", testutil.DecodeResponse(t, bad).Code)
}

func TestGuestRoutesRejectActiveSession(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Register("Carol Example", "carol@example.com", "AuthPassw0rd!")
	session, _ := env.Login("carol@example.com", "AuthPassw0rd!")

	again := env.Request(http.MethodPost, "/api/v1/login", map[string]string{
		"identifier": "carol",
		"password":   "AuthPassw0rd!",
	}, session)
	require.Equal(t, http.StatusBadRequest, again.Code)
	require.Equal(t, "ALREADY_LOGGED_IN", testutil.DecodeResponse(t, again).Code)
}

func TestRegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodPost, "/api/v1/register", map[string]string{
		"full_name": "No Password",
		"email":     "nopass@example.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	dupe := map[string]string{
		"full_name": "Dana Example",
		"email":     "dana@example.com",
		"password":  "AuthPassw0rd!",
	}
	first := env.Request(http.MethodPost, "/api/v1/register", dupe, nil)
	require.Equal(t, http.StatusCreated, first.Code)
	second := env.Request(http.MethodPost, "/api/v1/register", dupe, nil)
	require.Equal(t, http.StatusConflict, second.Code)
	require.Equal(t, "EMAIL_TAKEN", testutil.DecodeResponse(t, second).Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Register("Erin Example", "erin@example.com", "OldPassw0rd!")

	forgot := env.Request(http.MethodPost, "/api/v1/forgot", map[string]string{
		"email": "erin@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, forgot.Code, forgot.Body.String())
	var issued struct {
		Token string `json:"token"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, forgot).Data, &issued)
	require.NotEmpty(t, issued.Token)

	reset := env.Request(http.MethodPut, "/api/v1/reset/"+issued.Token, map[string]string{
		"password": "NewPassw0rd!",
	}, nil)
	require.Equal(t, http.StatusOK, reset.Code, reset.Body.String())

	old := env.Request(http.MethodPost, "/api/v1/login", map[string]string{
		"identifier": "erin",
		"password":   "OldPassw0rd!",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, old.Code)

	session, _ := env.Login("erin@example.com", "NewPassw0rd!")
	require.NotNil(t, session)

	// The token is single-use.
	replay := env.Request(http.MethodPut, "/api/v1/reset/"+issued.Token, map[string]string{
		"password": "AnotherPassw0rd!",
	}, nil)
	require.Equal(t, http.StatusBadRequest, replay.Code)
}
