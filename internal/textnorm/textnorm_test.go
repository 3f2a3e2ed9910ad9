package textnorm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Fábrica   PRECISA ": "fabrica precisa",
		"Coração\tde  Açúcar":  "coracao de acucar",
		"":                     "",
		"   ":                  "",
		"Ñandú":                "nandu",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"Bombom Explosivo", "  URSO  ao Leite ", "trufa de maracujá"} {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", s, once, twice)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v, ok := ParseNumber("1,5"); !ok || v != 1.5 {
		t.Fatalf("1,5 -> %v %v", v, ok)
	}
	if v, ok := ParseNumber("2.25"); !ok || v != 2.25 {
		t.Fatalf("2.25 -> %v %v", v, ok)
	}
	for _, bad := range []string{"", "abc", "Inf", "NaN", "1,2,3"} {
		if _, ok := ParseNumber(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSortByName_PortugueseCollation(t *testing.T) {
	names := []string{"Urso", "ébano", "abacaxi", "Éclair", "bombom"}
	SortByName(names, func(s string) string { return s })
	want := []string{"abacaxi", "bombom", "ébano", "Éclair", "Urso"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("sort mismatch (-want +got):\n%s", diff)
	}
}
