package service

import (
	"strings"
	"testing"
)

func TestCodeGenerator_UsesAlphabetAndLength(t *testing.T) {
	gen := NewCodeGenerator(12)

	for i := 0; i < 200; i++ {
		code, err := gen.Next()
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		if len(code) != 12 {
			t.Fatalf("expected length 12, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(CodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestCodeAlphabet_ExcludesAmbiguousCharacters(t *testing.T) {
	for _, r := range "0Oo1lI" {
		if strings.ContainsRune(CodeAlphabet, r) {
			t.Fatalf("alphabet must not contain %q", r)
		}
	}
}

func TestCodeGenerator_MarkTaken(t *testing.T) {
	gen := NewCodeGenerator(8)

	code, err := gen.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if gen.seen(code) {
		t.Fatalf("fresh code %q reported as seen", code)
	}

	gen.MarkTaken(code)
	if !gen.seen(code) {
		t.Fatalf("expected %q to be marked taken", code)
	}
}
