package util

import (
	"strings"
	"testing"
)

func TestMemoKeyShape(t *testing.T) {
	k := MemoKey("memo:app", "hex", "00ff")
	if !strings.HasPrefix(k, "memo:app:hex:") {
		t.Fatalf("unexpected prefix: %q", k)
	}
	digest := strings.TrimPrefix(k, "memo:app:hex:")
	if len(digest) != 64 {
		t.Fatalf("digest len = %d, want 64", len(digest))
	}
	// sha256("") is well known
	if got := MemoKey("p", "k", ""); got != "p:k:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("empty input key = %q", got)
	}
}

func TestMemoKeyDistinct(t *testing.T) {
	a := MemoKey("memo:x", "base64", "QQ==")
	b := MemoKey("memo:x", "base64url", "QQ==")
	c := MemoKey("memo:x", "base64", "QR==")
	if a == b || a == c || b == c {
		t.Fatalf("keys collide: %q %q %q", a, b, c)
	}
	if a != MemoKey("memo:x", "base64", "QQ==") {
		t.Fatalf("key is not deterministic")
	}
}
