package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdmissionValidate(t *testing.T) {
	gate := &admission{token: "correct-horse-battery"}

	tests := []struct {
		name   string
		header map[string]string
		want   bool
	}{
		{"missing header", nil, false},
		{"empty header", map[string]string{TokenHeader: ""}, false},
		{"wrong token", map[string]string{TokenHeader: "wrong"}, false},
		{"prefix of token", map[string]string{TokenHeader: "correct-horse"}, false},
		{"exact match", map[string]string{TokenHeader: "correct-horse-battery"}, true},
		{"case matters", map[string]string{TokenHeader: "Correct-Horse-Battery"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := gate.validate(r); got != tt.want {
				t.Errorf("validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdmissionDenyLeaksNothing(t *testing.T) {
	gate := &admission{token: "secret"}

	w := httptest.NewRecorder()
	gate.deny(w)

	if w.Code != http.StatusForbidden {
		t.Errorf("deny() status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if body := w.Body.String(); body != "handshake denied\n" {
		t.Errorf("deny() body = %q; the response must not explain the failure", body)
	}
}
