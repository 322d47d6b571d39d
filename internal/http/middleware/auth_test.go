package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/auth"
)

const testSecret = "test-secret-test-secret"

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := auth.NewVerifier(testSecret, "", "")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	r := gin.New()
	r.Use(RequestID(), Authenticate(v))
	r.GET("/me", func(c *gin.Context) {
		a := AuthFrom(c)
		c.JSON(http.StatusOK, gin.H{"account": a.AccountID, "name": a.DisplayName})
	})
	return r
}

func getMe(r *gin.Engine, authz string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthenticate_AnonymousWithoutHeader(t *testing.T) {
	w, body := getMe(authRouter(t), "")
	if w.Code != http.StatusOK || body["account"] != "" {
		t.Fatalf("anonymous = %d %v", w.Code, body)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tok, err := auth.Issuer{Secret: testSecret}.Issue("acct-42", "Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w, body := getMe(authRouter(t), "Bearer "+tok)
	if w.Code != http.StatusOK || body["account"] != "acct-42" || body["name"] != "Ada" {
		t.Fatalf("authenticated = %d %v", w.Code, body)
	}
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	expired, _ := auth.Issuer{Secret: testSecret, TTL: -time.Hour}.Issue("acct-42", "")
	forged, _ := auth.Issuer{Secret: "another-secret-entirely"}.Issue("acct-42", "")

	cases := map[string]struct {
		header  string
		message string
	}{
		"scheme":  {"Basic dXNlcjpwYXNz", "malformed Authorization header"},
		"empty":   {"Bearer ", "malformed Authorization header"},
		"expired": {"Bearer " + expired, "token expired"},
		"forged":  {"Bearer " + forged, "invalid token"},
		"garbage": {"Bearer not.a.jwt", "invalid token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w, body := getMe(authRouter(t), tc.header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("code = %d", w.Code)
			}
			if body["code"] != "unauthorized" || body["message"] != tc.message || body["request_id"] == "" {
				t.Fatalf("body = %v", body)
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate")
			}
		})
	}
}

func TestAuthenticate_NilVerifierIgnoresHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(nil))
	r.GET("/me", func(c *gin.Context) {
		if AuthFrom(c).Authenticated() {
			t.Fatalf("nil verifier must not authenticate")
		}
		c.Status(http.StatusOK)
	})
	w, _ := getMe(r, "Bearer whatever")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
}
