package model

import "time"

// DocumentType describes the structural shape of a carrier's statements.
type DocumentType string

const (
	DocumentTabular   DocumentType = "tabular"
	DocumentParagraph DocumentType = "paragraph"
	DocumentMixed     DocumentType = "mixed"
)

// DataQuality describes how clean a carrier's extracted text tends to be.
type DataQuality string

const (
	QualityClean        DataQuality = "clean"
	QualityOCRCorrupted DataQuality = "ocr_corrupted"
)

// MaxObservedPatterns bounds the per-carrier sample of identifier strings.
const MaxObservedPatterns = 20

// CarrierFormatProfile is the persisted, per-carrier learning state. It is
// created on first encounter, updated after every extraction attempt, and
// never deleted; it must round-trip losslessly across restarts.
type CarrierFormatProfile struct {
	CarrierCode            string         `json:"carrier_code"`
	Attempts               int            `json:"attempts"`
	Successes              int            `json:"successes"`
	ObservedIDPatterns     []string       `json:"observed_id_patterns,omitempty"`
	DocumentType           DocumentType   `json:"document_type,omitempty"`
	DataQuality            DataQuality    `json:"data_quality,omitempty"`
	PrimaryIdentifierField string         `json:"primary_identifier_field,omitempty"`
	FixedMapping           map[string]int `json:"fixed_mapping,omitempty"` // canonical field -> column index
	UpdatedAt              time.Time      `json:"updated_at"`
}

// SuccessRate is the cumulative ratio of successful extractions.
func (p *CarrierFormatProfile) SuccessRate() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Attempts)
}

// ObservePatterns appends new identifier examples, deduplicating and
// evicting the oldest entries past MaxObservedPatterns.
func (p *CarrierFormatProfile) ObservePatterns(patterns []string) {
	seen := make(map[string]bool, len(p.ObservedIDPatterns))
	for _, existing := range p.ObservedIDPatterns {
		seen[existing] = true
	}
	for _, pat := range patterns {
		if pat == "" || seen[pat] {
			continue
		}
		seen[pat] = true
		p.ObservedIDPatterns = append(p.ObservedIDPatterns, pat)
	}
	if n := len(p.ObservedIDPatterns); n > MaxObservedPatterns {
		p.ObservedIDPatterns = p.ObservedIDPatterns[n-MaxObservedPatterns:]
	}
}

// Clone returns a deep copy, so callers can stage an update and only commit
// it once the whole outcome is known.
func (p *CarrierFormatProfile) Clone() *CarrierFormatProfile {
	cp := *p
	cp.ObservedIDPatterns = append([]string(nil), p.ObservedIDPatterns...)
	if p.FixedMapping != nil {
		cp.FixedMapping = make(map[string]int, len(p.FixedMapping))
		for k, v := range p.FixedMapping {
			cp.FixedMapping[k] = v
		}
	}
	return &cp
}
