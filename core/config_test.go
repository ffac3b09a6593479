package core

import "testing"

func TestMirrorConfig(t *testing.T) {
	tests := []struct {
		name       string
		conf       MirrorConfig
		configured bool
		valid      bool
	}{
		{"empty", MirrorConfig{}, false, true},
		{"full", MirrorConfig{URL: "https://x.supabase.co", APIKey: "k"}, true, true},
		{"url only", MirrorConfig{URL: "https://x.supabase.co"}, true, false},
		{"key only", MirrorConfig{APIKey: "k"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Configured(); got != tt.configured {
				t.Errorf("Configured() = %v, want %v", got, tt.configured)
			}
			if err := tt.conf.Validate(); (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, want valid=%v", err, tt.valid)
			}
		})
	}
}
