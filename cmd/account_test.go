package cmd

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCredentialsFromInput(t *testing.T) {
	tests := []struct {
		name         string
		flagEmail    string
		input        string
		wantEmail    string
		wantPassword string
		wantErr      bool
	}{
		{
			name:         "both lines piped",
			input:        "ana@example.com\nsecret123\n",
			wantEmail:    "ana@example.com",
			wantPassword: "secret123",
		},
		{
			name:         "no trailing newline",
			input:        "ana@example.com\nsecret123",
			wantEmail:    "ana@example.com",
			wantPassword: "secret123",
		},
		{
			name:         "email from flag",
			flagEmail:    "bea@example.com",
			input:        "secret123\n",
			wantEmail:    "bea@example.com",
			wantPassword: "secret123",
		},
		{
			name:    "password line missing",
			input:   "ana@example.com\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountEmail, accountPassword = tt.flagEmail, ""
			defer func() { accountEmail, accountPassword = "", "" }()

			c := &cobra.Command{}
			c.SetIn(strings.NewReader(tt.input))
			c.SetOut(io.Discard)

			email, password, err := credentials(c)
			if tt.wantErr {
				if err == nil {
					t.Errorf("credentials() expected error, got %q / %q", email, password)
				}
				return
			}
			if err != nil {
				t.Fatalf("credentials() unexpected error: %v", err)
			}
			if email != tt.wantEmail || password != tt.wantPassword {
				t.Errorf("credentials() = %q / %q, want %q / %q", email, password, tt.wantEmail, tt.wantPassword)
			}
		})
	}
}
