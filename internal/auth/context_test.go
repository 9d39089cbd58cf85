package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), 5, 9, "developer")

	uid, err := UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), uid)

	cid, err := CompanyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cid)

	role, err := Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, "developer", role)
}

func TestIdentityMissing(t *testing.T) {
	_, err := UserID(context.Background())
	require.ErrorIs(t, err, ErrNoIdentity)

	_, err = CompanyID(WithIdentity(context.Background(), 1, 0, "admin"))
	require.ErrorIs(t, err, ErrNoIdentity)
}

func TestCaptureRequestMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var ip, ua string
	r := gin.New()
	r.GET("/x", CaptureRequestMeta(), func(c *gin.Context) {
		ip = ClientIP(c.Request.Context())
		ua = UserAgent(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.10:4711"
	req.Header.Set("User-Agent", "workhub-test/1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "192.0.2.10", ip)
	assert.Equal(t, "workhub-test/1.0", ua)
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	pair, err := m.IssuePair(time.Now(), 42, 7, "client")
	require.NoError(t, err)

	var got int64
	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		got, _ = UserID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), got)
}
