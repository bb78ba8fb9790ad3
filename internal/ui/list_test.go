package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/deeplink"
)

func makeRows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{item: catalog.Item{ID: int64(i + 1), Slug: fmt.Sprintf("s-%d", i+1), Title: fmt.Sprintf("Title %02d", i+1)}}
	}
	return out
}

func TestRenderListEmpty(t *testing.T) {
	if got := RenderList(nil, 0, 80, 10); got != "" {
		t.Errorf("expected empty render, got %q", got)
	}
}

func TestRenderListScrollsToCursor(t *testing.T) {
	rows := makeRows(30)
	out := RenderList(rows, 25, 80, 10)

	if strings.Count(out, "\n") != 9 {
		t.Errorf("expected 10 lines, got %d", strings.Count(out, "\n")+1)
	}
	if !strings.Contains(out, "Title 26") {
		t.Error("cursor row should be visible")
	}
	if strings.Contains(out, "Title 01") {
		t.Error("rows above the viewport should be scrolled away")
	}
}

func TestCalcScrollOffset(t *testing.T) {
	tests := []struct {
		cursor, total, visible, want int
	}{
		{0, 5, 10, 0},
		{3, 30, 10, 0},
		{15, 30, 10, 10},
		{29, 30, 10, 20},
		{5, 30, 0, 0},
	}
	for _, tt := range tests {
		if got := calcScrollOffset(tt.cursor, tt.total, tt.visible); got != tt.want {
			t.Errorf("calcScrollOffset(%d, %d, %d) = %d, want %d", tt.cursor, tt.total, tt.visible, got, tt.want)
		}
	}
}

func TestRenderRowBadges(t *testing.T) {
	r := makeRows(1)[0]
	if !strings.Contains(renderRow(r, false, 80), "new") {
		t.Error("unseen row should carry the new badge")
	}
	r.seen = true
	if strings.Contains(renderRow(r, false, 80), "new") {
		t.Error("seen row should not carry the new badge")
	}
}

func TestRenderRowLockedHidesTitle(t *testing.T) {
	r := makeRows(1)[0]
	r.locked = true
	for _, selected := range []bool{false, true} {
		out := renderRow(r, selected, 80)
		if strings.Contains(out, "Title 01") {
			t.Errorf("locked row leaked its title (selected=%v)", selected)
		}
		if !strings.Contains(out, "Locked") {
			t.Errorf("locked row should say so (selected=%v)", selected)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"日本語テキスト", 3, "日本…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPlainTextStripsMarkup(t *testing.T) {
	in := `<p>Swipe <b>left</b> to dismiss &amp; <script>alert(1)</script>undo</p>`
	got := plainText(in)
	if got != "Swipe left to dismiss & undo" {
		t.Errorf("plainText = %q", got)
	}
}

func TestTermTextStripsControlBytes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{"\x1b[31mred\x1b[0m alert", "red alert"},
		{"bell\a and\x00 nul", "bell and nul"},
		{"title\x1b]0;pwned\x07 here", "title here"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
	}
	for _, tt := range tests {
		if got := termText(tt.in); got != tt.want {
			t.Errorf("termText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderDetailEscapesSlugAndTitle(t *testing.T) {
	item := catalog.Item{ID: 1, Slug: "a b", Title: "\x1b[2JWipe"}
	out := renderDetail(item, -1, 0, false, nil, 90)
	if !strings.Contains(out, deeplink.ItemPath("a b")) {
		t.Errorf("detail should show the escaped item path:\n%s", out)
	}
	if strings.Contains(out, "\x1b[2J") {
		t.Error("title escape sequence reached the terminal")
	}
	if !strings.Contains(out, "Wipe") {
		t.Errorf("title text should survive:\n%s", out)
	}
}

func TestRenderDetail(t *testing.T) {
	item := catalog.Item{
		ID:          7,
		Slug:        "login-modal",
		Title:       "Login modal",
		Description: "<em>Two-step</em> sign in",
		Platforms:   []catalog.Tag{{ID: 1, Name: "iOS", Slug: "ios"}},
	}
	out := renderDetail(item, 2, 10, true, nil, 90)
	for _, want := range []string{"Login modal", "/item/login-modal", "3 of 10", "seen", "platform", "ios", "Two-step sign in"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
}
