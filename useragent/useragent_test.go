package useragent

import (
	"testing"
)

const edgeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.61 Safari/537.36 Edg/83.0.478.37"

func TestParse(t *testing.T) {
	p, err := NewParser(8)
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}

	got := p.Parse(edgeDesktop)
	if got == nil {
		t.Fatal("parse returned nil")
	}
	if got.UA != edgeDesktop {
		t.Fatalf("ua=%q", got.UA)
	}
	if got.Browser.Name != "Edge" || got.Browser.Version != "83.0.478.37" {
		t.Fatalf("browser=%+v", got.Browser)
	}
	if got.Engine.Name != "AppleWebKit" || got.Engine.Version != "537.36" {
		t.Fatalf("engine=%+v", got.Engine)
	}
	if got.OS.Name != "Windows" || got.OS.Version != "10" {
		t.Fatalf("os=%+v", got.OS)
	}
	if got.Platform != "Windows" || got.Mobile || got.Bot {
		t.Fatalf("platform=%q mobile=%v bot=%v", got.Platform, got.Mobile, got.Bot)
	}
}

func TestParseBot(t *testing.T) {
	p, _ := NewParser(0)
	got := p.Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	if !got.Bot || got.Browser.Name != "Googlebot" {
		t.Fatalf("got=%+v", got)
	}
}

func TestParseEmpty(t *testing.T) {
	p, _ := NewParser(8)
	if got := p.Parse("   "); got != nil {
		t.Fatalf("got=%+v, want nil", got)
	}
}

func TestParseCachedCopiesAreIndependent(t *testing.T) {
	p, _ := NewParser(8)
	first := p.Parse(edgeDesktop)
	first.Browser.Name = "mutated"

	second := p.Parse(edgeDesktop)
	if second.Browser.Name != "Edge" {
		t.Fatalf("cache entry was mutated: %+v", second.Browser)
	}
	if p.cache.Len() != 1 {
		t.Fatalf("cache len=%d, want 1", p.cache.Len())
	}
}
