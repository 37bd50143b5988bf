// Package sanitizer provides unit tests for prompt redaction.
package sanitizer

import (
	"strings"
	"testing"
)

func TestSanitizer_Sanitize(t *testing.T) {
	s := New(10000)

	tests := []struct {
		name             string
		input            string
		shouldContain    []string
		shouldNotContain []string
	}{
		{
			name:             "mask identity card number",
			input:            "Subject ID card 11010519491231002X on file",
			shouldNotContain: []string{"11010519491231002X"},
		},
		{
			name:             "mask mobile number",
			input:            "contact 13812345678 after shift",
			shouldNotContain: []string{"13812345678"},
		},
		{
			name:             "mask email",
			input:            "send results to officer.zhang@example.com",
			shouldNotContain: []string{"officer.zhang@example.com"},
		},
		{
			name:             "mask provider key",
			input:            "key sk-or-v1-abcdefghijklmnopqrstuvwxyz pasted by mistake",
			shouldNotContain: []string{"sk-or-v1-abcdefghijklmnopqrstuvwxyz"},
		},
		{
			name:             "mask password",
			input:            "portal password=mysecretpassword123",
			shouldNotContain: []string{"mysecretpassword123"},
		},
		{
			name:          "preserve exam findings",
			input:         "Blood pressure 145/95, mild fatty liver, ECG normal",
			shouldContain: []string{"145/95", "fatty liver", "ECG normal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.input)

			for _, should := range tt.shouldContain {
				if !strings.Contains(result, should) {
					t.Errorf("result should contain %q, got %q", should, result)
				}
			}

			for _, shouldNot := range tt.shouldNotContain {
				if strings.Contains(result, shouldNot) {
					t.Errorf("result should NOT contain %q, got %q", shouldNot, result)
				}
			}
		})
	}
}

func TestSanitizer_RedactsBeforeTruncating(t *testing.T) {
	id := "11010519491231002X"
	input := "ID " + id + " noted"
	// The limit cuts the number after eleven digits.
	s := New(len("ID ") + 11)

	result := s.Sanitize(input)

	if strings.Contains(result, id[:11]) {
		t.Errorf("result %q leaks the leading digits of the ID number", result)
	}
	if len(result) > len("ID ")+11 {
		t.Errorf("result length = %d, over the limit", len(result))
	}
}

func TestSanitizer_PIIFullyRedacted(t *testing.T) {
	s := New(1000)

	tests := []struct {
		input string
		want  string
	}{
		{"ID 11010519491231002X", "ID [REDACTED]"},
		{"call 13812345678", "call [REDACTED]"},
		{"Authorization: Bearer abcdefghijklmnop", "Authorization: Bearer [REDACTED]"},
		{"pwd: hunter22", "pwd: [REDACTED]"},
	}

	for _, tt := range tests {
		if got := s.Sanitize(tt.input); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizer_IsTooLarge(t *testing.T) {
	s := New(100)

	if !s.IsTooLarge(strings.Repeat("x", 101)) {
		t.Error("expected true for text > maxSize")
	}

	if s.IsTooLarge(strings.Repeat("x", 100)) {
		t.Error("expected false for text == maxSize")
	}
}

func TestSanitizer_IsEmpty(t *testing.T) {
	s := New(1000)

	if !s.IsEmpty("\n\t  ") {
		t.Error("expected true for whitespace with newlines/tabs")
	}

	if s.IsEmpty("content") {
		t.Error("expected false for non-empty string")
	}
}

func TestSanitizer_TruncationKeepsUTF8(t *testing.T) {
	s := New(10)
	// each character is three bytes
	result := s.Sanitize(strings.Repeat("体", 10))

	if len(result) > 10 {
		t.Errorf("result length = %d, should be <= 10", len(result))
	}
	if result != strings.Repeat("体", 3) {
		t.Errorf("result = %q, want three whole characters", result)
	}
}

func TestSanitizer_SanitizeWithStats(t *testing.T) {
	s := New(1000)
	input := "phone 13812345678 password=verylongpassword123"

	_, stats := s.SanitizeWithStats(input)

	if stats.OriginalSize != len(input) {
		t.Errorf("OriginalSize = %d, want %d", stats.OriginalSize, len(input))
	}

	if stats.Masked < 2 {
		t.Errorf("Masked = %d, want >= 2", stats.Masked)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "[REDACTED]"},
		{"sk-or-v1-0123456789abcd", "sk-o****abcd"},
		{"password=hunter22", "password=[REDACTED]"},
	}

	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
