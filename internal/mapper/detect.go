package mapper

import (
	"strings"
	"unicode"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// DetectTable locates the commission table's header row inside raw extracted
// rows using the carrier's configured table identifiers. The row with the
// most identifier hits wins; ties go to the earliest row. Returns false when
// no row contains any identifier.
func DetectTable(rows [][]string, identifiers []string) (int, bool) {
	if len(identifiers) == 0 {
		return 0, false
	}
	normalized := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if n := normalizeHeader(id); n != "" {
			normalized = append(normalized, n)
		}
	}

	bestRow, bestHits := -1, 0
	for i, row := range rows {
		hits := 0
		for _, ident := range normalized {
			for _, cell := range row {
				if strings.Contains(normalizeHeader(cell), ident) {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			bestRow, bestHits = i, hits
		}
	}
	if bestRow < 0 {
		return 0, false
	}
	return bestRow, true
}

const (
	// tabularWidthRatio is the minimum share of rows matching the header
	// width for a table to classify as tabular.
	tabularWidthRatio = 0.8
	// paragraphMaxCells is the widest a row can be and still look like
	// flowed text rather than a table row.
	paragraphMaxCells = 2
	// corruptCellRatio is the share of corrupt-looking cells past which the
	// source classifies as OCR-corrupted.
	corruptCellRatio = 0.05
)

// ClassifyStructure derives the document-type and data-quality hints for the
// format-learning store from the observed header and row shapes. Both are
// plain heuristics so they stay testable and deterministic.
func ClassifyStructure(header []string, rows [][]string) (model.DocumentType, model.DataQuality) {
	docType := classifyShape(header, rows)
	quality := classifyQuality(rows)
	return docType, quality
}

func classifyShape(header []string, rows [][]string) model.DocumentType {
	if len(rows) == 0 {
		return model.DocumentMixed
	}

	uniform, narrow := 0, 0
	for _, row := range rows {
		if len(row) == len(header) && len(header) >= 3 {
			uniform++
		}
		if len(row) <= paragraphMaxCells {
			narrow++
		}
	}

	total := float64(len(rows))
	switch {
	case float64(uniform)/total >= tabularWidthRatio:
		return model.DocumentTabular
	case float64(narrow)/total >= tabularWidthRatio:
		return model.DocumentParagraph
	default:
		return model.DocumentMixed
	}
}

func classifyQuality(rows [][]string) model.DataQuality {
	cells, corrupt := 0, 0
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			cells++
			if looksCorrupt(cell) {
				corrupt++
			}
		}
	}
	if cells > 0 && float64(corrupt)/float64(cells) > corruptCellRatio {
		return model.QualityOCRCorrupted
	}
	return model.QualityClean
}

// looksCorrupt flags cells dominated by replacement runes or non-printable
// characters, the usual residue of a bad OCR pass.
func looksCorrupt(cell string) bool {
	total, bad := 0, 0
	for _, r := range cell {
		total++
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			bad++
		}
	}
	return total > 0 && float64(bad)/float64(total) > 0.2
}
