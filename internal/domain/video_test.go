package domain

import "testing"

func TestNormalizeVideo_CanonicalForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"http://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"HTTPS://YOUTU.BE/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://vimeo.com/123456789", "https://vimeo.com/123456789"},
		{"http://www.vimeo.com/123456789/", "https://vimeo.com/123456789"},
		{"https://www.twitch.tv/videos/987654321", "https://www.twitch.tv/videos/987654321"},
		{"twitch.tv/videos/987654321", "https://www.twitch.tv/videos/987654321"},
	}
	for _, c := range cases {
		got, err := NormalizeVideo(c.in)
		if err != nil {
			t.Fatalf("NormalizeVideo(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeVideo(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeVideo_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"not a url at all \x7f",
		"ftp://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://example.com/video/123",
		"https://youtube.com/watch",               // no id
		"https://youtube.com/watch?v=bad id",      // invalid id chars
		"https://vimeo.com/about",                 // non-numeric
		"https://twitch.tv/somechannel",           // live channel, not a VOD
		"https://www.twitch.tv/videos/notdigits",  // non-numeric id
		"https://youtube.com/playlist?list=PL123", // wrong resource
	} {
		if got, err := NormalizeVideo(in); err == nil {
			t.Fatalf("NormalizeVideo(%q) = %q, want error", in, got)
		}
	}
}

func TestRecordStatus_Valid(t *testing.T) {
	for _, s := range []RecordStatus{StatusSubmitted, StatusUnderConsideration, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if RecordStatus("denied").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
	if RecordStatus("").Valid() {
		t.Fatalf("expected empty status to be invalid")
	}
}

func TestParseRecordStatus(t *testing.T) {
	st, ok := ParseRecordStatus("under consideration")
	if !ok || st != StatusUnderConsideration {
		t.Fatalf("ParseRecordStatus: got %q ok=%v", st, ok)
	}
	if _, ok := ParseRecordStatus("Approved"); ok {
		t.Fatalf("status parsing must be case-sensitive (stored form is lowercase)")
	}
}
