package server

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/vehicles", "/api/v1/vehicles"},
		{"/api/v1/vehicles/veh-a1b2c3d4e5f6", "/api/v1/vehicles/{id}"},
		{"/api/v1/vehicles/veh-a1b2c3/interactions", "/api/v1/vehicles/{id}/interactions"},
		{"/api/v1/hires/hire-a1b2c3d4e5f6", "/api/v1/hires/{id}"},
		{"/api/v1/payments/pay-a1b2c3d4e5f6", "/api/v1/payments/{id}"},
		{"/api/v1/locations/usr-a1b2c3d4e5f6", "/api/v1/locations/{id}"},
		{"/api/v1/admin/users/usr-a1b2c3", "/api/v1/admin/users/{id}"},
		{"/api/v1/auth/verify-email/alice/tok", "/api/v1/auth/verify-email/{username}/{token}"},
		{"/api/v1/auth/reset-password/alice/tok", "/api/v1/auth/reset-password/{username}/{token}"},
		{"/api/v1/auth/login", "/api/v1/auth/login"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
