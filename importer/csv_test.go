package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const sampleCSV = `Catalog ID,Item Name,Equipment,Brand,Stock,Notes
T-1,Torque Wrench,hand tool,Gedore,3.0,calibrated
T-2,,hand tool,Gedore,5,
Catalog ID,Item Name,Equipment,Brand,Stock,Notes
T-3,Extension Cord,electrical,,abc,"25m, orange"
`

func TestParse(t *testing.T) {
	b, err := Parse(strings.NewReader(sampleCSV), "utf-8")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.HeaderRows != 1 {
		t.Errorf("HeaderRows = %d, want 1", b.HeaderRows)
	}
	if len(b.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(b.Rows))
	}
	if r := b.Rows[0]; r.CatalogID != "T-1" || r.Name != "Torque Wrench" || r.Stock != 3 || r.Notes != "calibrated" {
		t.Errorf("row 0 = %+v", r)
	}
	if b.Rows[1].Name != "" {
		t.Errorf("empty names are passed through for the store to skip: %+v", b.Rows[1])
	}
	if r := b.Rows[2]; r.Stock != 0 || r.Notes != "25m, orange" {
		t.Errorf("row 2 = %+v", r)
	}
}

func TestDecodeRecord(t *testing.T) {
	rec, err := decodeRecord(map[string]any{
		"Catalog ID": "D-1", "Item Name": "Drill", "Equipment": "", "Brand": "Bosch", "Stock": "4.0", "Notes": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Stock != 4 || rec.Name != "Drill" || rec.CatalogID != "D-1" {
		t.Errorf("record = %+v", rec)
	}

	rec, err = decodeRecord(map[string]any{"Item Name": "Drill", "Stock": "-"})
	if err != nil || rec.Stock != 0 {
		t.Errorf("non-numeric stock = %d, %v; want 0, nil", rec.Stock, err)
	}

	if _, err := decodeRecord(map[string]any{"Item Name": "Drill", "Colour": "red"}); err == nil {
		t.Error("unknown keys should be rejected")
	}
}

func TestParse_ColumnOrderAndExtras(t *testing.T) {
	in := "Stock,Notes,Item Name,Extra,Brand,Equipment,Catalog ID\n7,,Hammer,x,Estwing,hand tool,H-1\n"
	b, err := Parse(strings.NewReader(in), "")
	if err != nil {
		t.Fatal(err)
	}
	if r := b.Rows[0]; r.Name != "Hammer" || r.Stock != 7 || r.CatalogID != "H-1" || r.Brand != "Estwing" {
		t.Errorf("row = %+v", r)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "Catalog ID,Name,Equipment,Brand,Stock,Notes\n1,a,b,c,1,\n",
		"field count":    "Catalog ID,Item Name,Equipment,Brand,Stock,Notes\n1,Saw,b,c\n",
		"bad quote":      "Catalog ID,Item Name,Equipment,Brand,Stock,Notes\n1,\"Saw,b,c,1,\n",
	}
	for name, in := range cases {
		if _, err := Parse(strings.NewReader(in), "utf-8"); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", name, err)
		}
	}
	if _, err := Parse(strings.NewReader(sampleCSV), "ebcdic"); err == nil {
		t.Error("unknown encoding should fail")
	}
}

func TestParse_Encodings(t *testing.T) {
	const text = "Catalog ID,Item Name,Equipment,Brand,Stock,Notes\nL-1,Llave inglesa,mecánica,Bahco,2,año 2020\n"

	latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name, enc string
		data      []byte
	}{
		{"latin1", "latin1", []byte(latin1)},
		{"utf8 bom", "utf-8", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"utf16 bom overrides config", "utf-8", []byte(utf16)},
	}
	for _, c := range cases {
		b, err := Parse(bytes.NewReader(c.data), c.enc)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if r := b.Rows[0]; r.Equipment != "mecánica" || r.Notes != "año 2020" || r.CatalogID != "L-1" {
			t.Errorf("%s: row = %+v", c.name, r)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, ok := parseS3URL("s3://tools/2024/march.csv")
	if !ok || bucket != "tools" || key != "2024/march.csv" {
		t.Errorf("got %q %q %v", bucket, key, ok)
	}
	for _, bad := range []string{"tools.csv", "s3://", "s3://bucket", "s3:///key"} {
		if _, _, ok := parseS3URL(bad); ok {
			t.Errorf("parseS3URL(%q) should fail", bad)
		}
	}
}
