package logger

import "testing"

func TestSanitizeValue(t *testing.T) {
	cases := []struct {
		key  string
		val  interface{}
		want interface{}
	}{
		{key: "api_key", val: "sk-123", want: "[REDACTED]"},
		{key: "email", val: "guest@rikai.ai", want: "[REDACTED]"},
		{key: "curriculum_id", val: "abc", want: "abc"},
		{key: "note", val: "aaaaaaaaaaaa.bbbbbbbbbbbb.cc", want: "[REDACTED]"},
	}
	for _, tc := range cases {
		if got := sanitizeValue(tc.key, tc.val); got != tc.want {
			t.Fatalf("sanitizeValue(%q)=%v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestHashValueIsStable(t *testing.T) {
	a := hashValue("user-1")
	b := hashValue("user-1")
	if a != b || a == "" {
		t.Fatalf("expected stable non-empty hash, got %q and %q", a, b)
	}
	if got := sanitizeValue("user_id", "user-1"); got != a {
		t.Fatalf("user_id should be hashed: got=%v want=%v", got, a)
	}
}
