package lazytext

import (
	"errors"
	"testing"

	"github.com/zeebo/blake3"
)

func TestDigestMatchesDigestString(t *testing.T) {
	sum, err := Digest(NewLiteral("hello world"))
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	if sum != DigestString("hello world") {
		t.Error("Digest and DigestString disagree")
	}
	if len(sum.String()) != 64 {
		t.Errorf("String() = %q, want 64 hex characters", sum.String())
	}
	if DigestString("hello world") == DigestString("hello world!") {
		t.Error("different content produced the same digest")
	}
}

func TestDigestIsKeyed(t *testing.T) {
	plain := blake3.Sum256([]byte("content"))
	if Sum(plain) == DigestString("content") {
		t.Error("digest should not equal the unkeyed BLAKE3 hash")
	}
}

func TestDigestStreamsUnresolvedSequence(t *testing.T) {
	seq := nestedExample(t)
	mustAppend(t, seq, newTestSupplied(t, Estimate(4), "tail"))

	sum, err := Digest(seq)
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	if sum != DigestString("foo.1.2bar3tail") {
		t.Error("digest does not match the content")
	}
	if seq.State() != Unresolved {
		t.Errorf("State() = %v after Digest, want unresolved", seq.State())
	}
}

func TestDigestReportsFailure(t *testing.T) {
	boom := errors.New("no content")
	failing, err := Supply(Bounds{}, func() (string, error) { return "", boom })
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}
	if _, err := Digest(failing); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}
