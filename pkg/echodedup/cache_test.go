package echodedup

import (
	"testing"
	"time"
)

func TestSeenWithinWindow(t *testing.T) {
	c := New(30 * time.Second)

	fp := Fingerprint("+573001112222", "image", " hola ")
	c.Register(fp)

	if !c.Seen(Fingerprint("+573001112222", "image", "hola")) {
		t.Fatal("expected trimmed-text fingerprint to match within window")
	}
	if c.Seen(fp) {
		t.Fatal("fingerprint should be consumed after first match")
	}
}

func TestSeenAfterWindowExpired(t *testing.T) {
	c := New(30 * time.Second)

	base := time.Now()
	current := base
	c.SetNowFunc(func() time.Time { return current })

	fp := Fingerprint("+573001112222", "", "hola")
	c.Register(fp)

	current = base.Add(31 * time.Second)
	if c.Seen(fp) {
		t.Fatal("fingerprint should expire after the window")
	}
}

func TestDifferentContentDoesNotMatch(t *testing.T) {
	c := New(30 * time.Second)

	c.Register(Fingerprint("+573001112222", "", "hola"))

	if c.Seen(Fingerprint("+573001112222", "", "adios")) {
		t.Fatal("different text must not match")
	}
	if c.Seen(Fingerprint("+573009998888", "", "hola")) {
		t.Fatal("different phone must not match")
	}
	if c.Seen(Fingerprint("+573001112222", "image", "hola")) {
		t.Fatal("different media type must not match")
	}
}

func TestEmptyFingerprintIgnored(t *testing.T) {
	c := New(30 * time.Second)
	c.Register("")
	if c.Seen("") {
		t.Fatal("empty fingerprint must never match")
	}
}
