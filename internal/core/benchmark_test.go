package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"testing"
)

// ============================================================================
// Conversion Function Benchmarks
// ============================================================================

// BenchmarkParsePrice benchmarks price parsing, run once per product row.
func BenchmarkParsePrice(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"  999.99  ",
		"1e3",
		"0",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ParsePrice(tc)
		}
	}
}

// BenchmarkParseTimestamp benchmarks date parsing across layouts. Later
// layouts in the list cost more, since each earlier one is tried first.
func BenchmarkParseTimestamp(b *testing.B) {
	testCases := []string{
		"2024-01-15T10:00:00Z", // RFC3339
		"2024-01-15 10:00:00",  // SQL style
		"01/15/2024",           // US format
		"Jan 15, 2024",         // Text month
		"20240115",             // Compact
		"1/5/24",               // 2-digit year
		"not-a-date",           // Worst case: every layout fails
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseTimestamp(tc)
		}
	}
}

// BenchmarkParseTimestamp_ISO benchmarks the most common export format.
func BenchmarkParseTimestamp_ISO(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseTimestamp("2024-01-15 10:00:00")
	}
}

func BenchmarkMakeHeaderIndex(b *testing.B) {
	header := []string{"name", "price", "catalog_id", "created_at", "updated_at"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MakeHeaderIndex(header)
	}
}

// ============================================================================
// Validation Benchmarks
// ============================================================================

func BenchmarkValidateProductRow(b *testing.B) {
	idx := MakeHeaderIndex([]string{"name", "price", "catalog_id", "created_at", "updated_at"})
	row := []string{"Bolt", "9.99", "1", "2024-01-15 10:00:00", "2024-01-15 10:00:00"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateProductRow(idx, row)
	}
}

// BenchmarkValidateProductRow_FirstError benchmarks early exit on a bad price.
func BenchmarkValidateProductRow_FirstError(b *testing.B) {
	idx := MakeHeaderIndex([]string{"name", "price", "catalog_id", "created_at", "updated_at"})
	row := []string{"Bolt", "cheap", "1", "2024-01-15", "2024-01-15"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateProductRow(idx, row)
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func BenchmarkProductImport(b *testing.B) {
	for _, rows := range []int{100, 10000} {
		data := generateProductCSV(rows)
		b.Run(strconv.Itoa(rows), func(b *testing.B) {
			discard := func(_ context.Context, p []Product) ([]Product, error) { return p, nil }
			p := productPipeline(discard, 0)
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				up := Upload{ContentType: CSVContentType, Body: bytes.NewReader(data)}
				if _, err := p.run(context.Background(), up, ImportOptions{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateProductCSV generates product CSV data with the specified number of rows.
func generateProductCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header
	w.Write([]string{"name", "price", "catalog_id", "created_at", "updated_at"})

	// Data rows
	for i := 0; i < rows; i++ {
		w.Write([]string{
			"Product " + strconv.Itoa(i),
			"19.99",
			strconv.Itoa(i%10 + 1),
			"2024-01-15 10:00:00",
			"2024-01-15 10:00:00",
		})
	}
	w.Flush()

	return buf.Bytes()
}
