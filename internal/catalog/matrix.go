package catalog

import (
	"sort"
	"strings"
)

// ColumnMatrix maps a selected price list code to the codes shown beside it.
// It is immutable once built and safe for concurrent use.
type ColumnMatrix struct {
	related        map[string][]string
	exportBaseline string
	weightBased    string
	industrial     string
}

// NewColumnMatrix builds a matrix from a code -> related codes table.
// Table keys are matched case-insensitively; config loaders lowercase map keys.
func NewColumnMatrix(table map[string][]string, exportBaseline, weightBased, industrial string) *ColumnMatrix {
	related := make(map[string][]string, len(table))
	for code, codes := range table {
		related[matrixKey(code)] = append([]string(nil), codes...)
	}
	return &ColumnMatrix{
		related:        related,
		exportBaseline: exportBaseline,
		weightBased:    weightBased,
		industrial:     industrial,
	}
}

// Columns returns the de-duplicated codes to surface for the selected code:
// the related codes (or the code itself), then the export baseline, then the
// weight-based code unless the selection is the industrial list.
func (m *ColumnMatrix) Columns(code string) []string {
	base, ok := m.related[matrixKey(code)]
	if !ok {
		base = []string{code}
	}

	columns := make([]string, 0, len(base)+2)
	seen := make(map[string]struct{}, len(base)+2)
	add := func(c string) {
		if c == "" {
			return
		}
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		columns = append(columns, c)
	}

	for _, c := range base {
		add(c)
	}
	add(m.exportBaseline)
	if !strings.EqualFold(code, m.industrial) {
		add(m.weightBased)
	}
	return columns
}

// ExportBaselineCode returns the designated export baseline code.
func (m *ColumnMatrix) ExportBaselineCode() string { return m.exportBaseline }

// WeightBasedCode returns the designated weight-based code.
func (m *ColumnMatrix) WeightBasedCode() string { return m.weightBased }

// IndustrialCode returns the designated industrial code.
func (m *ColumnMatrix) IndustrialCode() string { return m.industrial }

// Codes returns every code that has an explicit table entry, sorted.
func (m *ColumnMatrix) Codes() []string {
	codes := make([]string, 0, len(m.related))
	for code := range m.related {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func matrixKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
