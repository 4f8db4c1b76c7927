package jsonfmt_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tumbl-viewer/internal/jsonfmt"
	"tumbl-viewer/internal/logx"
	"tumbl-viewer/internal/media"
	"tumbl-viewer/internal/model"
	"tumbl-viewer/internal/textfmt"
)

func setup(t *testing.T, names ...string) (*media.Resolver, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logx.InitWriter(&logs, "debug", "pretty", "en", "never")
	return media.NewResolver(media.NewIndex("/blog", names)), &logs
}

func build(t *testing.T, r *media.Resolver, kind, obj string) model.Post {
	t.Helper()
	p, err := jsonfmt.NewBuilder(r, jsonfmt.DefaultOptions()).Build(kind, json.RawMessage(obj))
	if err != nil {
		t.Fatalf("build %s: %v", kind, err)
	}
	return p
}

func TestIsJSONAndParseArray(t *testing.T) {
	if !jsonfmt.IsJSON([]byte(`[{"id":"1"}]`)) || jsonfmt.IsJSON([]byte("Post id: 1")) {
		t.Fatalf("IsJSON discriminator wrong")
	}
	arr, err := jsonfmt.ParseArray([]byte(`[{"id":"1"},{"id":"2"}]`))
	if err != nil || len(arr) != 2 {
		t.Fatalf("parse array: %v len=%d", err, len(arr))
	}
	if _, err := jsonfmt.ParseArray([]byte(`[{"id":`)); err == nil {
		t.Fatalf("expect decode error")
	}
}

func TestBuild_IDHandling(t *testing.T) {
	r, _ := setup(t)
	b := jsonfmt.NewBuilder(r, jsonfmt.DefaultOptions())
	if p, err := b.Build(model.TypeAnswer, json.RawMessage(`{"id":12345}`)); err != nil || p.ID != 12345 {
		t.Fatalf("numeric id: %v %d", err, p.ID)
	}
	if _, err := b.Build(model.TypeAnswer, json.RawMessage(`{"date":"x"}`)); !errors.Is(err, jsonfmt.ErrMissingID) {
		t.Fatalf("expect missing id, got %v", err)
	}
	if _, err := b.Build(model.TypeAnswer, json.RawMessage(`{"id":"12a"}`)); !errors.Is(err, jsonfmt.ErrInvalidID) {
		t.Fatalf("expect invalid id, got %v", err)
	}
	if _, err := b.Build(model.TypeAnswer, json.RawMessage(`{"id":"12 "}`)); !errors.Is(err, jsonfmt.ErrInvalidID) {
		t.Fatalf("padded id should be invalid, got %v", err)
	}
	if _, err := b.Build(model.TypeAnswer, json.RawMessage(`["not","an","object"]`)); err == nil {
		t.Fatalf("expect structural error")
	}
	if _, err := b.Build(model.TypeImage, json.RawMessage(`{"id":"1","downloaded-media-files":"a.jpg"}`)); err == nil {
		t.Fatalf("expect type error for media list")
	}
}

func TestBuild_TagsStringAndArray(t *testing.T) {
	r, _ := setup(t)
	p := build(t, r, model.TypeAnswer, `{"id":"1","tags":"a, b, "}`)
	if len(p.Tags) != 2 || p.Tags[0] != "a" || p.Tags[1] != "b" {
		t.Fatalf("string tags=%#v", p.Tags)
	}
	p = build(t, r, model.TypeAnswer, `{"id":"1","tags":["a","","b"]}`)
	if len(p.Tags) != 2 {
		t.Fatalf("array tags=%#v", p.Tags)
	}
	p = build(t, r, model.TypeAnswer, `{"id":"1"}`)
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Fatalf("missing tags should be empty, got %#v", p.Tags)
	}
}

func TestBuild_AliasesAreExact(t *testing.T) {
	r, _ := setup(t, "tumblr_a_540.jpg")
	p := build(t, r, model.TypeImage, `{"id":"1","downloaded_media_files":["tumblr_a_540.jpg"],"photo-caption":"cap"}`)
	img := p.Kind.(model.Image)
	if len(img.PhotoURLs) != 1 || !img.PhotoURLs[0].IsResolved() {
		t.Fatalf("underscored alias not honored: %v", refStrings(img.PhotoURLs))
	}
	if img.Caption == nil || *img.Caption != "cap" {
		t.Fatalf("caption alias not honored")
	}
	p = build(t, r, model.TypeText, `{"id":"2","Regular-Title":"nope","regular-title":"yes"}`)
	if txt := p.Kind.(model.Text); txt.Title == nil || *txt.Title != "yes" {
		t.Fatalf("alias lookup should be case-sensitive: %v", txt.Title)
	}
}

func TestBuild_VideoCountWarning(t *testing.T) {
	r, logs := setup(t, "tumblr_v.mp4")
	p := build(t, r, model.TypeVideo, `{"id":"3","caption":"c","downloaded-media-files":["tumblr_v.mp4"]}`)
	if v := p.Kind.(model.Video); v.URL == nil || v.URL.String() != "file:///blog/tumblr_v.mp4" {
		t.Fatalf("video url=%v", v.URL)
	}
	if strings.Contains(logs.String(), "[WARN]") {
		t.Fatalf("single media file should not warn: %q", logs.String())
	}
	p = build(t, r, model.TypeVideo, `{"id":"4"}`)
	if v := p.Kind.(model.Video); v.URL != nil {
		t.Fatalf("video without media should have no url")
	}
	if !strings.Contains(logs.String(), "[WARN]") {
		t.Fatalf("expect count warning")
	}
}

func TestBuild_ImageEmptyWarns(t *testing.T) {
	r, logs := setup(t)
	p := build(t, r, model.TypeImage, `{"id":"5","caption":"c"}`)
	if img := p.Kind.(model.Image); len(img.PhotoURLs) != 0 {
		t.Fatalf("expect no photos")
	}
	if !strings.Contains(logs.String(), "[WARN]") {
		t.Fatalf("expect warning for empty media list")
	}
}

func TestBuild_TextStripsMediaAndDedups(t *testing.T) {
	r, _ := setup(t, "tumblr_i_1280.jpg", "tumblr_v.mp4")
	obj := `{"id":"6","regular-title":"T",
		"regular-body":"<p>keep</p><div><figure><img src=\"r1\"></figure></div><img src=\"r2\"><section><video><source src=\"r3\"></video></section>",
		"downloaded-media-files":["tumblr_i_1280.jpg","tumblr_v.mp4","tumblr_i_1280.jpg"]}`
	p := build(t, r, model.TypeText, obj)
	txt := p.Kind.(model.Text)
	body := *txt.Body
	for _, tag := range []string{"<img", "<figure", "<video"} {
		if strings.Contains(body, tag) {
			t.Fatalf("%s left in body: %q", tag, body)
		}
	}
	if !strings.Contains(body, "<p>keep</p>") {
		t.Fatalf("body lost content: %q", body)
	}
	got := refStrings(txt.MediaURLs)
	if len(got) != 2 || got[0] != "file:///blog/tumblr_i_1280.jpg" || got[1] != "file:///blog/tumblr_v.mp4" {
		t.Fatalf("media urls=%#v", got)
	}
}

func TestBuild_AnswerRendering(t *testing.T) {
	r, _ := setup(t)
	p := build(t, r, model.TypeAnswer, `{"id":"7","question":"Q?","answer":"A."}`)
	if a := p.Kind.(model.Answer); a.Body == nil || *a.Body != "<em>Q?</em><br>A." {
		t.Fatalf("answer body=%v", a.Body)
	}
}

func TestUnique(t *testing.T) {
	got := jsonfmt.Unique([]string{"b", "a", "b", "c", "a"})
	if strings.Join(got, ",") != "b,a,c" {
		t.Fatalf("unique=%v", got)
	}
}

// The legacy text builder rewrites <img src> in place and keeps other media tags,
// while the JSON builder removes all three element types.
func TestBodyHandling_TextVersusJSON(t *testing.T) {
	r, _ := setup(t, "tumblr_p_500.png")
	html := `<img src="https://x/tumblr_p_1280.png"><figure><b>f</b></figure><video><source src="v"></video>`

	tp, err := textfmt.NewBuilder(r, textfmt.DefaultOptions()).ParsePost(model.TypeText, "Post id: 1\nTitle: t\n"+html+"\nTags: ")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	tb := *tp.Kind.(model.Text).Body
	for _, want := range []string{`<img src="file:///blog/tumblr_p_500.png"`, "<figure>", "<video>"} {
		if !strings.Contains(tb, want) {
			t.Fatalf("text body missing %q: %q", want, tb)
		}
	}

	raw, _ := json.Marshal(map[string]any{"id": "1", "body": html})
	jp := build(t, r, model.TypeText, string(raw))
	jb := *jp.Kind.(model.Text).Body
	if jb != "" {
		t.Fatalf("json body should be empty after stripping, got %q", jb)
	}
}

// A text record and its JSON counterpart produce the same id, tags and media refs.
func TestRoundTrip_TextAndJSONAgree(t *testing.T) {
	r, _ := setup(t, "tumblr_xyz_540.jpg", "tumblr_uvw_540.jpg")
	rec := "Post id: 424242\nDate: 2019-05-01 12:00:00 GMT\n" +
		"Photo set urls: https://64.media.tumblr.com/h/tumblr_xyz_1280.jpg\nhttps://64.media.tumblr.com/h/tumblr_uvw_1280.jpg\n" +
		"Photo caption: c\nTags: cats, dogs"
	tp, err := textfmt.NewBuilder(r, textfmt.DefaultOptions()).ParsePost(model.TypeImage, rec)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	jp := build(t, r, model.TypeImage, `{"id":"424242","date":"Wed, 01 May 2019 12:00:00","tags":["cats","dogs"],
		"downloaded-media-files":["tumblr_xyz_540.jpg","tumblr_uvw_540.jpg"],"photo-caption":"c"}`)

	tj, _ := json.Marshal(tp)
	jj, _ := json.Marshal(jp)
	var a, b struct {
		ID        uint64   `json:"id"`
		Tags      []string `json:"tags"`
		PhotoURLs []string `json:"photo_urls"`
	}
	if err := json.Unmarshal(tj, &a); err != nil {
		t.Fatalf("decode text post: %v", err)
	}
	if err := json.Unmarshal(jj, &b); err != nil {
		t.Fatalf("decode json post: %v", err)
	}
	if a.ID != b.ID || strings.Join(a.Tags, "|") != strings.Join(b.Tags, "|") ||
		strings.Join(a.PhotoURLs, "|") != strings.Join(b.PhotoURLs, "|") {
		t.Fatalf("mismatch:\ntext=%s\njson=%s", tj, jj)
	}
}

func refStrings(refs []model.MediaRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.String())
	}
	return out
}
