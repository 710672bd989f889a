package handlers

import (
	"net/http"
	"testing"

	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

func TestAuthAPI_login(t *testing.T) {
	ta := initApp(t)
	createUser(t, ta.usrSvc, "profe", user.DocenteRoles)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{
			name:     "valid credentials",
			body:     LoginRequest{Username: "profe", Password: "Str0ngPwd!"},
			wantCode: http.StatusOK,
		},
		{
			name:     "username is case insensitive",
			body:     LoginRequest{Username: " PROFE ", Password: "Str0ngPwd!"},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     LoginRequest{Username: "profe", Password: "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     LoginRequest{Username: "ghost", Password: "Str0ngPwd!"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			body:     LoginRequest{},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", marshallObj(t, tt.body))
			ta.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d; body: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var res TokenResponse
				decodeBody(t, rec, &res)
				if res.Token == "" {
					t.Error("login returned an empty token")
				}
			}
		})
	}
}

func TestAuthAPI_tokenRefresh(t *testing.T) {
	ta := initApp(t)
	usr := createUser(t, ta.usrSvc, "profe", user.DocenteRoles)
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	ta.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var res TokenResponse
	decodeBody(t, rec, &res)
	if res.Token == "" {
		t.Error("refresh returned an empty token")
	}

	// no token, no refresh
	req, rec = newRequest(http.MethodPost, "/v1/auth/token-refresh")
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}
}
