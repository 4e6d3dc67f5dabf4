package payables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateStringSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello", "hello", 1},
		{"identical after normalization", "  Hello ", "hello", 1},
		{"empty right", "hello", "", 0},
		{"empty left", "", "hello", 0},
		{"both empty", "", "", 1},
		{"single edit", "kitten", "sitten", 0.833},
		{"classic kitten sitting", "kitten", "sitting", 0.571},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateStringSimilarity(tc.a, tc.b))
		})
	}
}

func TestCalculateStringSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Acme Corp", "ACME Corporation"},
		{"invoice-001", "invoice-100"},
		{"", "x"},
	}

	for _, p := range pairs {
		assert.Equal(t, CalculateStringSimilarity(p[0], p[1]), CalculateStringSimilarity(p[1], p[0]))
	}
}

func TestCalculateStringSimilarity_Bounds(t *testing.T) {
	inputs := []string{"", "a", "acme", "Acme Corp", "wholly unrelated vendor name"}
	for _, a := range inputs {
		for _, b := range inputs {
			got := CalculateStringSimilarity(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}
