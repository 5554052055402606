package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientFromConfigAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HTTPClientConfig
		expected string
	}{
		{
			name:     "bearer",
			cfg:      HTTPClientConfig{BearerToken: "secret"},
			expected: "Bearer secret",
		},
		{
			name:     "basic",
			cfg:      HTTPClientConfig{BasicAuth: &BasicAuth{Username: "user", Password: "pass"}},
			expected: "Basic dXNlcjpwYXNz",
		},
		{
			name:     "none",
			cfg:      HTTPClientConfig{},
			expected: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()

			client, err := NewClientFromConfig(test.cfg)
			if err != nil {
				t.Fatalf("creating client, unexpected error: %v", err)
			}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("doing request, unexpected error: %v", err)
			}
			resp.Body.Close()

			if got != test.expected {
				t.Errorf("authorization header got: %q, expected: %q", got, test.expected)
			}
		})
	}
}

func TestHTTPClientConfigValidate(t *testing.T) {
	cfg := HTTPClientConfig{
		BasicAuth:   &BasicAuth{Username: "user", Password: "pass"},
		BearerToken: "secret",
	}
	if err := cfg.Validate(); err == nil {
		t.Errorf("configuring both basic auth and a bearer token, an error must be returned")
	}
}
