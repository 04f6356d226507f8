package dedup

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct{ a, b string }{
		{"https://example.com/talk?utm_source=feed", "https://example.com/talk/"},
		{"http://www.example.com/page#section", "https://example.com/page"},
		{"https://example.com/x?b=2&a=1", "https://example.com/x?a=1&b=2"},
		{"https://youtube.com/watch?v=abc&feature=share", "https://www.youtube.com/watch?v=abc"},
	}
	for _, c := range cases {
		if got, want := NormalizeURL(c.a), NormalizeURL(c.b); got != want {
			t.Fatalf("URL %q и %q должны нормализоваться одинаково: %q != %q", c.a, c.b, got, want)
		}
	}
}

func TestNormalizeURLKeepsMeaningfulQuery(t *testing.T) {
	a := NormalizeURL("https://youtube.com/watch?v=abc")
	b := NormalizeURL("https://youtube.com/watch?v=def")
	if a == b {
		t.Fatalf("значимый параметр не должен отбрасываться")
	}
}

func TestNormalizeURLUnparsableInput(t *testing.T) {
	if NormalizeURL("   ") != "" {
		t.Fatalf("пустой ввод нормализуется в пустую строку")
	}
	if NormalizeURL("просто текст") != "просто текст" {
		t.Fatalf("неразборный ввод возвращается обрезанным как есть")
	}
}

func TestIsVideoURL(t *testing.T) {
	videos := []string{
		"https://www.youtube.com/watch?v=abc",
		"https://youtu.be/abc",
		"https://vimeo.com/12345",
		"https://rutube.ru/video/abc/",
	}
	for _, u := range videos {
		if !IsVideoURL(u) {
			t.Fatalf("%q должен распознаваться как видео", u)
		}
	}
	if IsVideoURL("https://example.com/article") {
		t.Fatalf("обычная статья не должна считаться видео")
	}
	if IsVideoURL("notyoutube.com") {
		t.Fatalf("строка без схемы и хоста не должна считаться видео")
	}
}
