package prompt

import (
	"strings"
	"testing"
)

func TestBuildAppendsTrimmedUserPrompt(t *testing.T) {
	positive, negative := Build("  a cat  ")
	if !strings.HasPrefix(positive, StyleDescriptor) {
		t.Fatalf("positive prompt missing style descriptor prefix: %q", positive)
	}
	if want := StyleDescriptor + ", a cat"; positive != want {
		t.Fatalf("positive = %q, want %q", positive, want)
	}
	if negative != NegativePrompt {
		t.Fatalf("negative = %q, want %q", negative, NegativePrompt)
	}
}

func TestBuildEmptyPromptYieldsDescriptorExactly(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		positive, _ := Build(input)
		if positive != StyleDescriptor {
			t.Fatalf("Build(%q) positive = %q, want descriptor exactly", input, positive)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a1, n1 := Build("shibuya at night")
	a2, n2 := Build("shibuya at night")
	if a1 != a2 || n1 != n2 {
		t.Fatal("Build must be deterministic for identical input")
	}
}
