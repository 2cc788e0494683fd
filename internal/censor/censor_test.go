package censor

import "testing"

func TestApply_Capitalization(t *testing.T) {
	f := Default()
	cases := []struct {
		in, want string
	}{
		{"Blood", "Energy"},
		{"blood", "energy"},
		{"BLOOD", "Energy"},
		{"Blood dripped from the knife.", "Energy dripped from the blade."},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, _ := f.Apply(tc.in)
			if got != tc.want {
				t.Fatalf("Apply(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestApply_WordBoundaries(t *testing.T) {
	f := Default()
	cases := []struct {
		name  string
		in    string
		want  string
		count int
	}{
		{"embedded", "The swordsman bowed.", "The swordsman bowed.", 0},
		{"standalone", "He drew his sword.", "He drew his blade.", 1},
		{"adjacent punctuation", "sword,sword!(sword)", "blade,blade!(blade)", 3},
		{"prefix of longer word", "classic passage", "classic passage", 0},
		{"longest match wins", "asshole", "behind", 1},
		{"hyphenated", "a hard-on", "a reaction", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, n := f.Apply(tc.in)
			if got != tc.want || n != tc.count {
				t.Fatalf("Apply(%q) = (%q, %d), want (%q, %d)", tc.in, got, n, tc.want, tc.count)
			}
		})
	}
}

func TestApply_EmptyFilter(t *testing.T) {
	f := New(nil)
	if got, n := f.Apply("blood"); got != "blood" || n != 0 {
		t.Fatalf("empty filter changed text: %q (%d)", got, n)
	}
}
