package archive

import "testing"

func TestArchMatches(t *testing.T) {
	cases := []struct {
		pattern, arch string
		want          bool
	}{
		{"any", "amd64", true},
		{"any", "all", false},
		{"all", "all", true},
		{"all", "amd64", false},
		{"linux-any", "amd64", true},
		{"linux-any", "kfreebsd-amd64", false},
		{"any-arm", "armel", true},
		{"any-arm", "armhf", true},
		{"any-arm", "amd64", false},
		{"gnu-any-any", "amd64", true},
		{"musl-any-any", "amd64", false},
		{"kfreebsd-any", "kfreebsd-amd64", true},
		{"amd64", "amd64", true},
		{"amd64", "i386", false},
	}
	for _, c := range cases {
		if got := ArchMatches(c.pattern, c.arch); got != c.want {
			t.Errorf("ArchMatches(%q, %q) = %v, want %v", c.pattern, c.arch, got, c.want)
		}
	}
}
