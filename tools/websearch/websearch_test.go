package websearch

import (
	"errors"
	"testing"
)

func TestNewSearcher(t *testing.T) {
	t.Parallel()
	for _, p := range []Provider{SerperProvider, BraveProvider, GoogleCSEProvider} {
		s, err := NewSearcher(p, Credentials{APIKey: "k", CX: "cx"})
		if err != nil {
			t.Fatalf("NewSearcher(%s): %v", p, err)
		}
		if s == nil {
			t.Fatalf("NewSearcher(%s) returned nil searcher", p)
		}
	}
	if _, err := NewSearcher(Provider("bing"), Credentials{}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}
