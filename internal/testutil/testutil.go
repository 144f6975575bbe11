// Package testutil holds helpers shared by HTTP and storage tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"crateapi/internal/platform/crypto"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

// TestListenerID is the subject used by tokens minted in tests.
const TestListenerID = "listener-123"

// GenerateTestToken mints a bearer token carrying a provider access token.
func GenerateTestToken(secret, userID, providerToken string) string {
	token, _ := crypto.GenerateToken(secret, userID, providerToken, time.Hour)
	return token
}

// GenerateExpiredToken mints a bearer token that expired an hour ago.
func GenerateExpiredToken(secret, userID string) string {
	c := crypto.Claims{
		Sub: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequestWithAuth creates a request with an optional bearer token.
func NewRequestWithAuth(method, path string, token string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse is a decoded JSON envelope response.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse decodes the recorder's body as a JSON object.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// ErrorCode extracts error.code from an error envelope.
func (r RecordResponse) ErrorCode() string {
	if e, ok := r.Body["error"].(map[string]interface{}); ok {
		code, _ := e["code"].(string)
		return code
	}
	return ""
}

// Data returns the data object of a success envelope.
func (r RecordResponse) Data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}
