package textsig

import "testing"

func TestFingerprint_Deterministic(t *testing.T) {
	text := "senior software engineer remote full time"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	a := Fingerprint("the role requires five years of backend experience with go")
	b := Fingerprint("the role requires six years of backend experience with go")

	if dist := Distance(a, b); dist > 16 {
		t.Errorf("near-identical texts have distance %d, want <= 16", dist)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	a := Fingerprint("senior software engineer building distributed storage systems")
	b := Fingerprint("part time barista needed weekends only apply within")

	if dist := Distance(a, b); dist < 5 {
		t.Errorf("unrelated texts have distance %d, want >= 5", dist)
	}
}

func TestFingerprint_EmptyAndWhitespace(t *testing.T) {
	if Fingerprint("") != 0 {
		t.Error("empty input should fingerprint to 0")
	}
	if Fingerprint("  \t\n ") != 0 {
		t.Error("whitespace-only input should fingerprint to 0")
	}
}

func TestFingerprint_FewTokensFallsBackToWords(t *testing.T) {
	if Fingerprint("hello") == 0 {
		t.Error("single word should produce a non-zero fingerprint")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	if !Similar(0, 3, 2) {
		t.Error("distance 2 should satisfy maxDistance 2")
	}
	if Similar(0, 7, 2) {
		t.Error("distance 3 should not satisfy maxDistance 2")
	}
}

func TestMakeShingles(t *testing.T) {
	got := makeShingles([]string{"a", "b", "c", "d"}, 3)
	want := []string{"a_b_c", "b_c_d"}
	if len(got) != len(want) {
		t.Fatalf("shingles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shingle[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if makeShingles([]string{"a"}, 3) != nil {
		t.Error("fewer tokens than n should yield nil")
	}
}
