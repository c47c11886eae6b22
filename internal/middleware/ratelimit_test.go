package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(10 * time.Second)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/api/v1/chat", nil)
	handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/api/v1/chat", nil)
	handle(c2)
	require.True(t, c2.IsAborted())
}

func TestRateLimiterSeparatesPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(10 * time.Second)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/api/v1/chat", nil)
	handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("GET", "/api/v1/branches", nil)
	handle(c2)
	require.False(t, c2.IsAborted())
}

func TestRateLimiterDisabledWithoutWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(0)

	for i := 0; i < 3; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("POST", "/api/v1/chat", nil)
		handle(c)
		require.False(t, c.IsAborted())
	}
}
