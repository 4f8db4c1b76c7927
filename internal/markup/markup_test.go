package markup_test

import (
	"strings"
	"testing"

	"tumbl-viewer/internal/markup"
)

func TestRewriteImgSrc_KeepsOtherMarkup(t *testing.T) {
	in := `<p>hi <b>there</b></p><img src="a.jpg" alt="x"><img alt="nosrc">`
	out, err := markup.RewriteImgSrc(in, func(src string) string { return "local/" + src })
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !strings.Contains(out, `src="local/a.jpg"`) || !strings.Contains(out, `alt="x"`) {
		t.Fatalf("img not rewritten: %q", out)
	}
	if !strings.Contains(out, "<p>hi <b>there</b></p>") {
		t.Fatalf("other markup changed: %q", out)
	}
	if strings.Contains(out, "<html>") || strings.Contains(out, "<body>") {
		t.Fatalf("fragment wrapped in document: %q", out)
	}
}

func TestStripElements_AnyDepth(t *testing.T) {
	in := `<div><p>keep</p><figure><img src="x"></figure><section><video><source src="v"></video></section><img src="y"></div>`
	out, err := markup.StripElements(in, "img", "figure", "video")
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	for _, tag := range []string{"<img", "<figure", "<video", "<source"} {
		if strings.Contains(out, tag) {
			t.Fatalf("%s not stripped: %q", tag, out)
		}
	}
	if !strings.Contains(out, "<p>keep</p>") || !strings.Contains(out, "<section></section>") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFirstAttr(t *testing.T) {
	in := `<video><source src="https://v/tumblr_abc.mp4" type="video/mp4"><source src="second"></video>`
	val, found, ok, err := markup.FirstAttr(in, "source", "src")
	if err != nil || !found || !ok || val != "https://v/tumblr_abc.mp4" {
		t.Fatalf("FirstAttr=%q found=%v ok=%v err=%v", val, found, ok, err)
	}
	_, found, _, _ = markup.FirstAttr("<p>none</p>", "source", "src")
	if found {
		t.Fatalf("expect no source element")
	}
	_, found, ok, _ = markup.FirstAttr(`<video><source type="x"></video>`, "source", "src")
	if !found || ok {
		t.Fatalf("expect element without src, found=%v ok=%v", found, ok)
	}
}

func TestRewriteImgSrc_ExactBytes(t *testing.T) {
	identity := func(src string) string { return src }
	cases := []string{
		`<p>Tom & Jerry<br>line</p><img src="a.jpg">`,
		`<p>unclosed paragraph`,
		`plain text with a < b`,
		`<td>cell</td><img src="a.jpg">`,
		`<IMG alt='x'><img src="a.jpg"/>`,
	}
	for _, in := range cases {
		out, err := markup.RewriteImgSrc(in, identity)
		if err != nil {
			t.Fatalf("rewrite %q: %v", in, err)
		}
		if out != in {
			t.Fatalf("markup changed:\n in=%q\nout=%q", in, out)
		}
	}
}

func TestRewriteImgSrc_OnlySrcChanges(t *testing.T) {
	in := "<table><tr><td>a & b<br></td></tr></table>\n<p>x<IMG SRC=\"r.jpg\" alt=\"y\"><img src=\"s.jpg\" /></p><p>open"
	out, err := markup.RewriteImgSrc(in, func(src string) string { return "local/" + src })
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	want := "<table><tr><td>a & b<br></td></tr></table>\n<p>x<img src=\"local/r.jpg\" alt=\"y\"><img src=\"local/s.jpg\"/></p><p>open"
	if out != want {
		t.Fatalf("out=%q\nwant=%q", out, want)
	}
}
