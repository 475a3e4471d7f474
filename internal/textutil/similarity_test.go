package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"a nil", nil, NewFingerprint("autumn leaves"), 0},
		{"b nil", NewFingerprint("autumn leaves"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "Autumn Leaves Joseph Kosma"
	a := NewFingerprint(text)
	b := NewFingerprint(text)

	got := CosineSimilarity(a, b)
	if got != 1.0 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityCompletelyDifferent(t *testing.T) {
	a := NewFingerprint("autumn leaves kosma")
	b := NewFingerprint("giant steps coltrane")

	got := CosineSimilarity(a, b)
	if got != 0 {
		t.Errorf("CosineSimilarity(different) = %v, want 0", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := NewFingerprint("blue bossa dorham")
	b := NewFingerprint("bossa nova dorham")

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)

	if ab != ba {
		t.Errorf("CosineSimilarity not symmetric: (%v, %v)", ab, ba)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	a := &Fingerprint{tokens: map[string]float64{}, norm: 0}
	b := NewFingerprint("blue bossa nova")

	got := CosineSimilarity(a, b)
	if got != 0 {
		t.Errorf("CosineSimilarity(zero norm) = %v, want 0", got)
	}
}

func TestNewFingerprintEmpty(t *testing.T) {
	if fp := NewFingerprint(""); fp != nil {
		t.Error("expected nil for empty text")
	}
}

func TestNewFingerprintShortTokens(t *testing.T) {
	if fp := NewFingerprint("a an it to"); fp != nil {
		t.Error("expected nil for text with only short tokens")
	}
}

func TestNewFingerprintNormCalculation(t *testing.T) {
	// "blue blue bossa" -> blue:2, bossa:1
	// norm = sqrt(2^2 + 1^2) = sqrt(5)
	fp := NewFingerprint("blue blue bossa")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}

	expectedNorm := math.Sqrt(5)
	if math.Abs(fp.norm-expectedNorm) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, expectedNorm)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "Autumn Leaves",
			want:  []string{"autumn", "leaves"},
		},
		{
			name:  "filters short",
			input: "a to the quick fox",
			want:  []string{"the", "quick", "fox"},
		},
		{
			name:  "handles punctuation",
			input: "I've Got Rhythm (Live!)",
			want:  []string{"got", "rhythm", "live"},
		},
		{
			name:  "handles numbers",
			input: "take5 blues99",
			want:  []string{"take5", "blues99"},
		},
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v (len %d), want %v (len %d)",
					got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCosineSimilarityNearDuplicateSongs(t *testing.T) {
	// Same song with minor title variation should score high.
	a := NewFingerprint("Autumn Leaves Joseph Kosma")
	b := NewFingerprint("Autumn Leaves (Live) Joseph Kosma")

	sim := CosineSimilarity(a, b)
	if sim < 0.8 {
		t.Errorf("near-duplicate similarity = %v, want >= 0.8", sim)
	}

	// A different song by the same composer should score well below.
	c := NewFingerprint("Les Feuilles Mortes Joseph Kosma")
	cross := CosineSimilarity(a, c)
	if cross >= sim {
		t.Errorf("unrelated title scored %v, near-duplicate scored %v", cross, sim)
	}
}
