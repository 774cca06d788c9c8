package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	serverFlags := []string{"-a", "-d", "-k", "-n"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", ":5000", "-c", "conf.json"},
			allowed: serverFlags,
			want:    []string{"-a", ":5000"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=postgres://db/eventportal", "-x", "1"},
			allowed: serverFlags,
			want:    []string{"-d=postgres://db/eventportal"},
		},
		{
			name:    "negative number is a value",
			args:    []string{"-k", "-1", "-n", "40"},
			allowed: serverFlags,
			want:    []string{"-k", "-1", "-n", "40"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-k", "-n", "40"},
			allowed: serverFlags,
			want:    []string{"-k", "-n", "40"},
		},
		{
			name:    "admin flags among server flags",
			args:    []string{"-d", "dsn", "-name", "Jane Doe", "-email=jane@college.edu"},
			allowed: []string{"-name", "-email"},
			want:    []string{"-name", "Jane Doe", "-email=jane@college.edu"},
		},
		{
			name:    "flag without value at end",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "nothing allowed matches",
			args:    []string{"-x", "1", "positional"},
			allowed: serverFlags,
			want:    []string{},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: serverFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"server", "-c", "/etc/eventportal.json"}, "/etc/eventportal.json"},
		{"long", []string{"server", "-config=/etc/portal.json", "-a", ":5000"}, "/etc/portal.json"},
		{"absent", []string{"server", "-a", ":5000"}, ""},
		{"last wins", []string{"server", "-c", "1.json", "-config", "2.json"}, "2.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			os.Args = tc.args
			assert.Equal(t, tc.want, JsonConfigFlags())
		})
	}
}
