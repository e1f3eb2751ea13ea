package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("RIKAI_TEST_INT", "12")
	t.Setenv("RIKAI_TEST_BAD_INT", "x")
	t.Setenv("RIKAI_TEST_BOOL", "off")
	t.Setenv("RIKAI_TEST_SECONDS", "3")
	t.Setenv("RIKAI_TEST_LIST", " a, ,b ")

	if got := Int("RIKAI_TEST_INT", 1); got != 12 {
		t.Fatalf("Int got=%d want=12", got)
	}
	if got := Int("RIKAI_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback got=%d want=7", got)
	}
	if got := Bool("RIKAI_TEST_BOOL", true); got {
		t.Fatalf("Bool got=true want=false")
	}
	if got := Seconds("RIKAI_TEST_SECONDS", time.Minute); got != 3*time.Second {
		t.Fatalf("Seconds got=%s", got)
	}
	if got := List("RIKAI_TEST_LIST", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List got=%v", got)
	}
	if got := String("RIKAI_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String got=%q", got)
	}
}
