package plugin

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// numericVersion draws a dotted version string with 1-5 numeric segments.
func numericVersion(t *rapid.T, label string) string {
	n := rapid.IntRange(1, 5).Draw(t, label+"_len")
	segs := make([]string, n)
	for i := range segs {
		segs[i] = strconv.Itoa(rapid.IntRange(0, 999).Draw(t, label+"_seg"))
	}
	return strings.Join(segs, ".")
}

func TestCompareVersions_Reflexive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := numericVersion(t, "v")
		if got := CompareVersions(v, v); got != 0 {
			t.Fatalf("CompareVersions(%q, %q) = %d, want 0", v, v, got)
		}
	})
}

func TestCompareVersions_Antisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := numericVersion(t, "a")
		b := numericVersion(t, "b")
		if CompareVersions(a, b) != -CompareVersions(b, a) {
			t.Fatalf("CompareVersions(%q, %q) and reverse are not antisymmetric", a, b)
		}
	})
}

func TestCompareVersions_AppendedSegmentIsGreater(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := numericVersion(t, "v")
		seg := rapid.IntRange(0, 999).Draw(t, "seg")
		longer := v + "." + strconv.Itoa(seg)
		if got := CompareVersions(v, longer); got != -1 {
			t.Fatalf("CompareVersions(%q, %q) = %d, want -1", v, longer, got)
		}
	})
}

func TestCompareVersions_MatchesNumericOrder(t *testing.T) {
	// Single-segment versions must order exactly like integers,
	// never like strings ("9" < "10").
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 100000).Draw(t, "a")
		b := rapid.IntRange(0, 100000).Draw(t, "b")
		want := 0
		if a < b {
			want = -1
		} else if a > b {
			want = 1
		}
		if got := CompareVersions(strconv.Itoa(a), strconv.Itoa(b)); got != want {
			t.Fatalf("CompareVersions(%d, %d) = %d, want %d", a, b, got, want)
		}
	})
}
