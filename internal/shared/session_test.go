package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nusalend/nusalend/internal/shared"
	_ "github.com/nusalend/nusalend/testing"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	manager := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)

	sess.SetUser("7")
	sess.SetPrincipal([]byte(`{"id":7,"permissions":["READ_LOAN"]}`))
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "test_session", cookies[0].Name)

	// Replay the cookie and confirm the stored state survives.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	loaded, err := manager.Load(ctx, req2)
	require.NoError(t, err)
	require.Equal(t, "7", loaded.User())
	require.Equal(t, "dark", loaded.Get("theme"))
	require.JSONEq(t, `{"id":7,"permissions":["READ_LOAN"]}`, string(loaded.Principal()))
}

func TestSessionDestroy(t *testing.T) {
	manager := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("7")

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	manager.Destroy(sess)
	res2 := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res2, req, sess))

	expired := res2.Result().Cookies()[0]
	require.Equal(t, -1, expired.MaxAge)

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(cookie)
	loaded, err := manager.Load(ctx, req3)
	require.NoError(t, err)
	require.Empty(t, loaded.User())
	require.Empty(t, loaded.Principal())
}

func TestPrincipalSnapshotIsOpaqueToTheStore(t *testing.T) {
	manager := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)

	snapshot := []byte(`{"id":1,"roles":["Reviewer"]}`)
	sess.SetPrincipal(snapshot)
	snapshot[0] = 'X' // caller mutations must not leak into the session

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(res.Result().Cookies()[0])
	loaded, err := manager.Load(ctx, req2)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"roles":["Reviewer"]}`, string(loaded.Principal()))
}

func TestCSRFTokenLifecycle(t *testing.T) {
	manager := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), shared.ErrCSRFTokenMismatch)
}
