package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "under a minute", seconds: 42, want: "0:42"},
		{name: "minutes", seconds: 245, want: "4:05"},
		{name: "hours", seconds: 3725, want: "1:02:05"},
		{name: "negative", seconds: -3, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tc := []struct {
		n    int64
		want string
	}{
		{n: 512, want: "512 B"},
		{n: 2048, want: "2.0 KiB"},
		{n: 5 * 1024 * 1024, want: "5.0 MiB"},
	}

	for _, tt := range tc {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestSafeFileName(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Song Title", want: "Song Title"},
		{name: "separators", in: "AC/DC: Live", want: "AC-DC- Live"},
		{name: "reserved", in: "What? \"Now\" *", want: "What Now"},
		{name: "empty", in: "   ", want: "untitled"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFileName(tt.in); got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if len(a) != 36 {
		t.Errorf("expected a 36 character uuid, got %q", a)
	}
	if a == b {
		t.Error("expected distinct ids")
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"albums": 2}

	t.Run("Compact", func(t *testing.T) {
		data, err := MarshalJSON(v, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `{"albums":2}` {
			t.Errorf("unexpected output %s", data)
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		data, err := MarshalJSON(v, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "{\n  \"albums\": 2\n}" {
			t.Errorf("unexpected output %s", data)
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tui.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	logger.Info("hello", "view", "albums")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected log line in file, got %q", data)
	}
}
