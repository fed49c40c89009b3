package safety

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type stubModerator struct {
	result string
	err    error
	calls  int
}

func (s *stubModerator) Classify(ctx context.Context, text string) (string, error) {
	s.calls++
	return s.result, s.err
}

func TestLayer1BlocksKeyword(t *testing.T) {
	f := NewFilter(nil, testLogger())
	v := f.Check(context.Background(), "a child with a gun shooting monsters")
	if v.Safe {
		t.Fatal("expected unsafe verdict")
	}
	if !strings.Contains(v.Reason, "gun") {
		t.Fatalf("reason %q does not name the matched term", v.Reason)
	}
}

func TestLayer1IgnoresWhitespaceAndCase(t *testing.T) {
	f := NewFilter(nil, testLogger())
	for _, text := range []string{
		"a story about a G U N in the forest",
		"a story about a GuN in the forest",
		"a story about a g\tu\nn in the forest",
	} {
		v := f.Check(context.Background(), text)
		if v.Safe {
			t.Fatalf("expected %q to be blocked", text)
		}
		if !strings.Contains(v.Reason, "gun") {
			t.Fatalf("reason %q does not mention gun", v.Reason)
		}
	}
}

func TestLayer1DefeatsUnicodeEvasion(t *testing.T) {
	f := NewFilter(nil, testLogger())
	for _, text := range []string{
		"vïølence in the playground",
		"a gμn for the hero",
		"the knífe collection",
		"ŁOVE and mûrdér mystery",
	} {
		v := f.Check(context.Background(), text)
		if v.Safe {
			t.Fatalf("expected %q to be blocked", text)
		}
	}
}

func TestLayer1AllowsSafeTheme(t *testing.T) {
	f := NewFilter(nil, testLogger())
	v := f.Check(context.Background(), "a bunny explores a magical forest")
	if !v.Safe {
		t.Fatalf("safe theme blocked: %s", v.Reason)
	}
	if v.Reason != "" {
		t.Fatalf("safe verdict carries reason %q", v.Reason)
	}
}

func TestLayer2Unsafe(t *testing.T) {
	mod := &stubModerator{result: "UNSAFE: too scary for young children"}
	f := NewFilter(mod, testLogger())
	v := f.Check(context.Background(), "a very spooky haunted house at midnight")
	if v.Safe {
		t.Fatal("expected layer 2 to block")
	}
	if v.Reason != "too scary for young children" {
		t.Fatalf("reason = %q", v.Reason)
	}
}

func TestLayer2Safe(t *testing.T) {
	mod := &stubModerator{result: "SAFE"}
	f := NewFilter(mod, testLogger())
	v := f.Check(context.Background(), "a bunny explores a magical forest")
	if !v.Safe {
		t.Fatalf("expected safe, got reason %q", v.Reason)
	}
}

func TestLayer2FailsOpen(t *testing.T) {
	mod := &stubModerator{err: errors.New("quota exhausted")}
	f := NewFilter(mod, testLogger())
	v := f.Check(context.Background(), "a bunny explores a magical forest")
	if !v.Safe {
		t.Fatal("moderator failure must fall back to layer-1 safe")
	}
	if v.Reason != "" {
		t.Fatalf("fail-open verdict carries reason %q", v.Reason)
	}
}

func TestLayer2SkippedAfterLayer1Hit(t *testing.T) {
	mod := &stubModerator{result: "SAFE"}
	f := NewFilter(mod, testLogger())
	v := f.Check(context.Background(), "war stories")
	if v.Safe {
		t.Fatal("expected layer 1 to block")
	}
	if mod.calls != 0 {
		t.Fatalf("moderator called %d times after a layer-1 hit", mod.calls)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"vïølence":   "violence",
		"g u n":      "gun",
		"gμn":        "gun",
		"ßmoking":    "ssmoking",
		"Æsop's WAR": "aesop'swar",
	}
	for in, want := range cases {
		if got := normalize(in); got != want {
			t.Fatalf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseModeration(t *testing.T) {
	if reason, unsafe := parseModeration("SAFE"); unsafe || reason != "" {
		t.Fatalf("SAFE misparsed: %q %v", reason, unsafe)
	}
	if reason, unsafe := parseModeration("UNSAFE: depicts a robbery"); !unsafe || reason != "depicts a robbery" {
		t.Fatalf("UNSAFE misparsed: %q %v", reason, unsafe)
	}
	if _, unsafe := parseModeration("  UNSAFE:   scary  "); !unsafe {
		t.Fatal("padded UNSAFE not detected")
	}
}
