package cmdutil

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseHook(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			"simple command",
			"notify-send changed",
			[]string{"notify-send", "changed"},
			false,
		},
		{
			"command with quoted argument",
			"notify-send \"Releases changed\"",
			[]string{"notify-send", "Releases changed"},
			false,
		},
		{
			"command with single quotes",
			"echo 'hello world'",
			[]string{"echo", "hello world"},
			false,
		},
		{
			"command with escaped quotes",
			"echo \"hello \\\"world\\\"\"",
			[]string{"echo", "hello \"world\""},
			false,
		},
		{
			"unterminated quote",
			"echo \"oops",
			nil,
			true,
		},
		{
			"empty string",
			"",
			nil,
			true,
		},
		{
			"whitespace only",
			"   ",
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHook(tt.input, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseHook() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got.Parts, tt.want) {
				t.Errorf("ParseHook() = %v, want %v", got.Parts, tt.want)
			}
			if got.Timeout != DefaultTimeout {
				t.Errorf("Expected default timeout, got %s", got.Timeout)
			}
		})
	}
}

func TestHook_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("passes environment", func(t *testing.T) {
		hook := &Hook{Parts: []string{"sh", "-c", "echo $MR_RELEASE_CHANGED"}, Timeout: 5 * time.Second}
		result, err := hook.Run(ctx, "MR_RELEASE_CHANGED=Web,Api")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if strings.TrimSpace(string(result.Output)) != "Web,Api" {
			t.Errorf("Expected environment in output, got %q", result.Output)
		}
		if result.ExitCode != 0 || result.Duration == 0 {
			t.Errorf("Unexpected result: %+v", result)
		}
	})

	t.Run("redacts secrets", func(t *testing.T) {
		hook := &Hook{Parts: []string{"echo", "token=s3cret"}, Secrets: []string{"s3cret", ""}}
		result, err := hook.Run(ctx)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if strings.Contains(string(result.Output), "s3cret") || !strings.Contains(string(result.Output), "***REDACTED***") {
			t.Errorf("Expected secret to be redacted, got %q", result.Output)
		}
	})

	t.Run("reports exit code", func(t *testing.T) {
		hook := &Hook{Parts: []string{"sh", "-c", "exit 3"}}
		result, err := hook.Run(ctx)
		if err == nil {
			t.Fatal("Expected error for failing command")
		}
		if result.ExitCode != 3 {
			t.Errorf("Expected exit code 3, got %d", result.ExitCode)
		}
	})

	t.Run("times out", func(t *testing.T) {
		hook := &Hook{Parts: []string{"sleep", "10"}, Timeout: 10 * time.Millisecond}
		_, err := hook.Run(ctx)
		if err == nil || !strings.Contains(err.Error(), "timed out") {
			t.Errorf("Expected timeout error, got %v", err)
		}
	})

	t.Run("empty command", func(t *testing.T) {
		if _, err := (&Hook{}).Run(ctx); err == nil {
			t.Error("Expected error for empty command")
		}
	})
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  []string
		want string
	}{
		{"simple command", []string{"notify-send", "changed"}, "notify-send changed"},
		{"argument with spaces", []string{"notify-send", "Releases changed"}, "notify-send 'Releases changed'"},
		{"empty command", nil, "<empty command>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCommand(tt.cmd); got != tt.want {
				t.Errorf("FormatCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}
