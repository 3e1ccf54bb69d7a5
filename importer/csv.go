// Package importer loads item tables (CSV) from local files, S3 objects or
// a watched drop folder into the item store.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"workshop_tool_inventory/db"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrMalformed = errors.New("malformed import file")

// Headers are matched exactly; synonyms are not recognised.
var Headers = []string{"Catalog ID", "Item Name", "Equipment", "Brand", "Stock", "Notes"}

type record struct {
	CatalogID string `mapstructure:"Catalog ID"`
	Name      string `mapstructure:"Item Name"`
	Equipment string `mapstructure:"Equipment"`
	Brand     string `mapstructure:"Brand"`
	Stock     int    `mapstructure:"Stock"`
	Notes     string `mapstructure:"Notes"`
}

// quantityHook 数量列走 CoerceQuantity："3.0" → 3，"abc" → 0
func quantityHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	return db.CoerceQuantity(data), nil
}

func decodeRecord(m map[string]any) (record, error) {
	var rec record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(quantityHook),
		ErrorUnused: true,
		Result:      &rec,
	})
	if err != nil {
		return rec, err
	}
	return rec, dec.Decode(m)
}

// Batch 是解析后的整张表；重复的表头行已经去掉并计入 HeaderRows
type Batch struct {
	Rows       []db.ImportRow
	HeaderRows int
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// decodeReader 先看 BOM，BOM 优先于配置的编码
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)
	switch {
	case bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}):
		enc = unicode.UTF8BOM
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE}):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(head, []byte{0xFE, 0xFF}):
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	}
	return transform.NewReader(br, enc.NewDecoder()), nil
}

// Parse reads a whole table. Any malformed line or missing column aborts the
// parse so nothing from a broken file reaches the database.
func Parse(r io.Reader, encodingName string) (*Batch, error) {
	dr, err := decodeReader(r, encodingName)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dr)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, h := range Headers {
		if _, ok := cols[h]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, h)
		}
	}

	b := &Batch{}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ParseError 带行号
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if isHeader(fields, cols) {
			b.HeaderRows++
			continue
		}

		m := make(map[string]any, len(Headers))
		for _, h := range Headers {
			m[h] = strings.TrimSpace(fields[cols[h]])
		}
		rec, err := decodeRecord(m)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		b.Rows = append(b.Rows, db.ImportRow{
			CatalogID: rec.CatalogID,
			Name:      rec.Name,
			Equipment: rec.Equipment,
			Brand:     rec.Brand,
			Stock:     rec.Stock,
			Notes:     rec.Notes,
		})
	}
	return b, nil
}

func isHeader(fields []string, cols map[string]int) bool {
	return strings.TrimSpace(fields[cols["Item Name"]]) == "Item Name" &&
		strings.TrimSpace(fields[cols["Stock"]]) == "Stock"
}
