package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

func TestDetectTable(t *testing.T) {
	rows := [][]string{
		{"Aetna Producer Statement"},
		{"Statement period: January 2025"},
		{"Policy Number", "Effective Date", "Commission Amount"},
		{"AET001234", "2025-01-15", "1250.00"},
	}

	idx, ok := DetectTable(rows, []string{"policy number", "commission"})
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestDetectTable_TieGoesToEarliestRow(t *testing.T) {
	rows := [][]string{
		{"Policy", "Amount"},
		{"Policy", "Amount"},
	}
	idx, ok := DetectTable(rows, []string{"policy", "amount"})
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestDetectTable_NoIdentifierHit(t *testing.T) {
	rows := [][]string{{"totally"}, {"unrelated", "content"}}

	_, ok := DetectTable(rows, []string{"policy number"})
	assert.False(t, ok)

	_, ok = DetectTable(rows, nil)
	assert.False(t, ok)
}

func TestClassifyStructure_Tabular(t *testing.T) {
	header := []string{"Policy", "Date", "Amount"}
	rows := [][]string{
		{"A1", "2025-01-01", "10.00"},
		{"A2", "2025-01-02", "20.00"},
		{"A3", "2025-01-03", "30.00"},
	}

	docType, quality := ClassifyStructure(header, rows)
	assert.Equal(t, model.DocumentTabular, docType)
	assert.Equal(t, model.QualityClean, quality)
}

func TestClassifyStructure_Paragraph(t *testing.T) {
	header := []string{"text"}
	rows := [][]string{
		{"Commission statement for January covering all active policies."},
		{"Payments were remitted on the fifth business day."},
	}

	docType, _ := ClassifyStructure(header, rows)
	assert.Equal(t, model.DocumentParagraph, docType)
}

func TestClassifyStructure_CorruptedCells(t *testing.T) {
	header := []string{"Policy", "Date", "Amount"}
	rows := [][]string{
		{"A1", "2025-01-01", "10.00"},
		{"����", "2025-01-02", "20.00"},
	}

	_, quality := ClassifyStructure(header, rows)
	assert.Equal(t, model.QualityOCRCorrupted, quality)
}
