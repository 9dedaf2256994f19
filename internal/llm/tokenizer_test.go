package llm

import (
	"strings"
	"testing"
)

func TestTokenizer_CountTokens(t *testing.T) {
	tok, err := NewTokenizer("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	if n := tok.CountTokens("hello world"); n <= 0 {
		t.Errorf("expected positive token count, got %d", n)
	}

	short := tok.CountTokens("hi")
	long := tok.CountTokens(strings.Repeat("hello ", 100))
	if long <= short {
		t.Errorf("expected longer text to have more tokens: %d vs %d", long, short)
	}
}

func TestTokenizer_TruncateToTokens(t *testing.T) {
	tok, err := NewTokenizer("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	text := strings.Repeat("hello world ", 100)

	t.Run("within budget unchanged", func(t *testing.T) {
		if got := tok.TruncateToTokens("short", 100); got != "short" {
			t.Errorf("expected unchanged text, got %q", got)
		}
	})

	t.Run("over budget truncated", func(t *testing.T) {
		got := tok.TruncateToTokens(text, 20)
		if n := tok.CountTokens(got); n > 20 {
			t.Errorf("expected at most 20 tokens, got %d", n)
		}
		if !strings.HasPrefix(text, got) {
			t.Error("expected truncated text to be a prefix of the original")
		}
	})
}

func TestSharedTokenizer_ReturnsSameInstance(t *testing.T) {
	first, err := SharedTokenizer()
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	second, _ := SharedTokenizer()
	if first != second {
		t.Error("expected shared tokenizer to be a singleton")
	}
}
