package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webhook-guard/internal/common/secret"
	"webhook-guard/internal/testutil"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		presented  string
		want       bool
	}{
		{"matching token", "abc123", "abc123", true},
		{"unset secret rejects everything", "", "abc123", false},
		{"unset secret rejects empty token", "", "", false},
		{"empty presented", "abc123", "", false},
		{"different token", "abc123", "abc124", false},
		{"prefix of secret", "abc123", "abc", false},
		{"secret is prefix", "abc123", "abc1234", false},
		{"case differs", "abc123", "ABC123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateToken(tt.configured, tt.presented))
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc123"}, "abc123"},
		{"admin header", map[string]string{"X-Admin-Token": "abc123"}, "abc123"},
		{
			"bearer wins",
			map[string]string{"Authorization": "Bearer from-bearer", "X-Admin-Token": "from-header"},
			"from-bearer",
		},
		{
			"empty bearer falls back",
			map[string]string{"Authorization": "Bearer ", "X-Admin-Token": "from-header"},
			"from-header",
		},
		{"basic auth ignored", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, ""},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/status", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAdminValidator(t *testing.T) {
	v := NewAdminValidator(secret.New(testutil.AdminToken))
	assert.True(t, v.Configured())
	assert.True(t, v.Validate(testutil.AdminToken))
	assert.False(t, v.Validate("nope"))
	assert.Equal(t, Status{Configured: true}, v.Status())

	unset := NewAdminValidator(secret.Secret{})
	assert.False(t, unset.Configured())
	assert.False(t, unset.Validate(""))
	assert.False(t, unset.Validate(testutil.AdminToken))

	data, err := json.Marshal(unset.Status())
	require.NoError(t, err)
	assert.JSONEq(t, `{"configured":false}`, string(data))
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		configured string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"valid bearer", "abc123", "Authorization", "Bearer abc123", http.StatusNoContent, ""},
		{"valid header", "abc123", "X-Admin-Token", "abc123", http.StatusNoContent, ""},
		{
			"missing token", "abc123", "", "", http.StatusUnauthorized,
			`{"error":"Unauthorized","message":"Admin token is required"}`,
		},
		{
			"wrong token", "abc123", "Authorization", "Bearer wrong", http.StatusUnauthorized,
			`{"error":"Unauthorized","message":"Invalid admin token"}`,
		},
		{
			"unset token", "", "X-Admin-Token", "abc123", http.StatusUnauthorized,
			`{"error":"Unauthorized","message":"Invalid admin token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewBufferLogger(t)
			handler := RequireAdmin(NewAdminValidator(secret.New(tt.configured)), logger)(ok)

			r := httptest.NewRequest(http.MethodGet, "/api/admin/status", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, r)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
			assert.NotContains(t, logs.String(), "abc123")
			assert.NotContains(t, logs.String(), "wrong")
		})
	}
}

func TestRequireAdmin_LogsRejectionCode(t *testing.T) {
	logger, logs := testutil.NewBufferLogger(t)
	handler := RequireAdmin(NewAdminValidator(secret.Secret{}), logger)(http.NotFoundHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	r.Header.Set("Authorization", "Bearer guess-1")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/events", nil))

	out := logs.String()
	assert.Contains(t, out, "Admin request rejected")
	assert.Contains(t, out, "code=token_invalid")
	assert.Contains(t, out, "admin_configured=false")
	assert.Contains(t, out, "code=token_missing")
	assert.NotContains(t, out, "guess-1")
}
