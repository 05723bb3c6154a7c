package transcription

import "testing"

func TestParseWhisperOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"top-level text", `{"text":" Hello world. ","language":"en","segments":[]}`, "Hello world."},
		{"segments only", `{"text":"","segments":[{"id":0,"text":" one "},{"id":1,"text":"two"},{"id":2,"text":"  "}]}`, "one two"},
		{"empty", `{}`, ""},
	}
	for _, tc := range cases {
		got, err := parseWhisperOutput([]byte(tc.in))
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}

	if _, err := parseWhisperOutput([]byte("not json")); err == nil {
		t.Errorf("expected an error for malformed output")
	}
}
