package metrics

import "testing"

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "GET"},
		{"POST", "POST"},
		{"DELETE", "DELETE"},
		{"PROPFIND", "other"},
		{"get", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := NormalizeMethod(tt.method); got != tt.want {
				t.Errorf("NormalizeMethod(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	m := New([]string{"/auth", "/api/v1/tasks", "/health", "/"})

	tests := []struct {
		path string
		want string
	}{
		{"/auth", "/auth"},
		{"/auth/login", "/auth"},
		{"/api/v1/tasks/5", "/api/v1/tasks"},
		{"/health", "/health"},
		{"/", "/"},
		{"/unknown", "other"},
		{"/authx", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := m.NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNew_RegistersCollectors(t *testing.T) {
	m := New(nil)

	if m.Registry == nil {
		t.Fatal("Registry is nil")
	}

	// Double registration must panic, proving the collectors are registered.
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	m.Registry.MustRegister(m.RequestsTotal)
}
