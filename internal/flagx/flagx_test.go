package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value kept",
			args:    []string{"-a", "https://auth.example.com", "-x", "1"},
			allowed: []string{"-a"},
			want:    []string{"-a", "https://auth.example.com"},
		},
		{
			name:    "equals form kept whole",
			args:    []string{"-a=https://auth.example.com", "-x=1"},
			allowed: []string{"-a"},
			want:    []string{"-a=https://auth.example.com"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-a"},
			want:    []string{},
		},
		{
			name:    "flag followed by flag keeps no value",
			args:    []string{"-a", "-i"},
			allowed: []string{"-a"},
			want:    []string{"-a"},
		},
		{
			name:    "multiple allowed flags preserve order",
			args:    []string{"-i", "900", "-a", "https://auth.example.com"},
			allowed: []string{"-a", "-i"},
			want:    []string{"-i", "900", "-a", "https://auth.example.com"},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: []string{"-a"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}
