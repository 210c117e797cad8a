package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func requestFrom(t *testing.T, remoteAddr string, headers map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = remoteAddr
	for name, value := range headers {
		c.Request.Header.Set(name, value)
	}
	return c
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded chain uses first hop",
			remote:  "10.0.0.1:4321",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			want:    "203.0.113.7",
		},
		{
			name:   "forwarded-for beats real-ip",
			remote: "10.0.0.1:4321",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.7",
				"X-Real-IP":       "198.51.100.4",
			},
			want: "203.0.113.7",
		},
		{
			name:    "real-ip when no forwarded-for",
			remote:  "10.0.0.1:4321",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
		{
			name:   "remote addr strips port",
			remote: "192.0.2.9:58214",
			want:   "192.0.2.9",
		},
		{
			name:   "remote addr without port passes through",
			remote: "192.0.2.9",
			want:   "192.0.2.9",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getClientIP(requestFrom(t, tc.remote, tc.headers)); got != tc.want {
				t.Errorf("getClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
