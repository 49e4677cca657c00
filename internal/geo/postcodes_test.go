package geo

import (
	"strings"
	"testing"
)

const postcodeCSV = `id,postcode,latitude,longitude
1,AB1 0AA,57.101474,-2.242851
2,AB1 0AB,57.102554,-2.246308
3,BROKEN,not-a-number,0
`

func TestReadPostcodes(t *testing.T) {
	t.Parallel()

	index, err := ReadPostcodes(strings.NewReader(postcodeCSV))
	if err != nil {
		t.Fatalf("ReadPostcodes error: %v", err)
	}

	if index.Len() != 2 {
		t.Fatalf("expected 2 entries (broken row skipped), got %d", index.Len())
	}

	lat, lon := index.Lookup("ab1 0aa")
	if lat == nil || lon == nil {
		t.Fatal("expected a hit for normalized postcode")
	}
	if *lat != 57.101474 || *lon != -2.242851 {
		t.Fatalf("unexpected coordinates: %v, %v", *lat, *lon)
	}
}

func TestLookupIsExactAfterNormalization(t *testing.T) {
	t.Parallel()

	index, err := ReadPostcodes(strings.NewReader(postcodeCSV))
	if err != nil {
		t.Fatalf("ReadPostcodes error: %v", err)
	}

	if lat, _ := index.Lookup(" AB10AB "); lat == nil {
		t.Fatal("spacing and case must not matter")
	}
	if lat, _ := index.Lookup("AB1"); lat != nil {
		t.Fatal("prefix must not match")
	}
}

func TestReadPostcodesRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ReadPostcodes(strings.NewReader("a,b\n1,2\n"))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestNilIndexLookup(t *testing.T) {
	t.Parallel()

	var index *PostcodeIndex
	if lat, lon := index.Lookup("AB1 0AA"); lat != nil || lon != nil {
		t.Fatal("nil index must miss")
	}
}
