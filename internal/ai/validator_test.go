// Package ai provides unit tests for the response validator.
package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/jingxin-guardian/internal/domain"
)

func TestDefaultValidator_Validate(t *testing.T) {
	v := NewDefaultValidator(64)

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "plain text", text: "OK", wantErr: false},
		{name: "chinese text", text: "你好，最近工作怎么样？", wantErr: false},
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace only", text: " \n\t", wantErr: true},
		{name: "invalid utf8", text: string([]byte{0xff, 0xfe, 0xfd}), wantErr: true},
		{name: "too long", text: strings.Repeat("a", 65), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrMalformedResponse) {
				t.Errorf("error should wrap ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestDefaultValidator_NoLimit(t *testing.T) {
	v := NewDefaultValidator(0)

	if err := v.Validate(strings.Repeat("a", 1<<16)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
