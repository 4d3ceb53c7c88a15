package cas

import (
	"reflect"
	"testing"
)

func TestNormalize_Valid(t *testing.T) {
	got, ok := Normalize("64-17-5")
	if !ok {
		t.Fatal("expected 64-17-5 to validate")
	}
	if got != "64-17-5" {
		t.Errorf("expected 64-17-5, got %q", got)
	}
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	got, ok := Normalize("  7732-18-5\t")
	if !ok {
		t.Fatal("expected whitespace-padded CAS to validate")
	}
	if got != "7732-18-5" {
		t.Errorf("expected 7732-18-5, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, ok := Normalize(" 64-17-5 ")
	if !ok {
		t.Fatal("expected valid CAS")
	}
	second, ok := Normalize(first)
	if !ok {
		t.Fatal("normalized CAS must re-validate")
	}
	if first != second {
		t.Errorf("normalize not idempotent: %q != %q", first, second)
	}
}

func TestNormalize_Rejected(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"00-00-0",       // placeholder
		"0-00-0",        // all-zero placeholder variant
		"12345",         // no dashes
		"12345678-12-1", // 8 leading digits
		"64-1-5",        // middle group too short
		"64-17-55",      // trailing group too long
		"abc-12-3",
	}
	for _, raw := range cases {
		if _, ok := Normalize(raw); ok {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestExtractBatch_DedupePreservesOrder(t *testing.T) {
	raws := []string{"64-17-5", "bogus", " 7732-18-5 ", "64-17-5", "00-00-0", "50-00-0"}
	got := ExtractBatch(raws)
	want := []string{"64-17-5", "7732-18-5", "50-00-0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractBatch_Empty(t *testing.T) {
	if got := ExtractBatch(nil); len(got) != 0 {
		t.Errorf("expected empty batch, got %v", got)
	}
}
