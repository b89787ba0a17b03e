package domain

import (
	"encoding/json"
	"fmt"
)

// EnrichmentRecord is the tagged union behind what used to be an open
// metadata map. Each kind is a known struct so consumers can switch
// exhaustively instead of probing optional keys.
type EnrichmentRecord interface {
	EnrichmentKind() string
}

const (
	KindVerification    = "verification"
	KindSkillAssessment = "skill_assessment"
	KindBackgroundCheck = "background_check"
	KindPortfolioReview = "portfolio_review"
)

type VerificationRecord struct {
	Verified   bool   `json:"verified"`
	VerifiedBy string `json:"verified_by,omitempty"`
	VerifiedAt string `json:"verified_at,omitempty"`
}

func (VerificationRecord) EnrichmentKind() string { return KindVerification }

type SkillAssessment struct {
	Skill    string `json:"skill"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Assessor string `json:"assessor,omitempty"`
}

func (SkillAssessment) EnrichmentKind() string { return KindSkillAssessment }

type BackgroundCheck struct {
	Passed    bool   `json:"passed"`
	Provider  string `json:"provider,omitempty"`
	CheckedAt string `json:"checked_at,omitempty"`
}

func (BackgroundCheck) EnrichmentKind() string { return KindBackgroundCheck }

type PortfolioReview struct {
	Reviewer string `json:"reviewer,omitempty"`
	Rating   int    `json:"rating"`
	Notes    string `json:"notes,omitempty"`
}

func (PortfolioReview) EnrichmentKind() string { return KindPortfolioReview }

type enrichmentEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeEnrichments serializes records with a kind discriminator for JSONB
// storage.
func EncodeEnrichments(records []EnrichmentRecord) ([]byte, error) {
	envelopes := make([]enrichmentEnvelope, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, enrichmentEnvelope{Kind: rec.EnrichmentKind(), Data: data})
	}
	return json.Marshal(envelopes)
}

// DecodeEnrichments parses stored enrichment JSON. Unknown kinds and records
// with missing or malformed data are skipped rather than failing the whole
// profile read.
func DecodeEnrichments(raw []byte) ([]EnrichmentRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var envelopes []enrichmentEnvelope
	if err := json.Unmarshal(raw, &envelopes); err != nil {
		return nil, fmt.Errorf("malformed enrichment payload: %w", err)
	}

	var records []EnrichmentRecord
	for _, env := range envelopes {
		var rec EnrichmentRecord
		switch env.Kind {
		case KindVerification:
			rec = &VerificationRecord{}
		case KindSkillAssessment:
			rec = &SkillAssessment{}
		case KindBackgroundCheck:
			rec = &BackgroundCheck{}
		case KindPortfolioReview:
			rec = &PortfolioReview{}
		default:
			continue
		}
		if len(env.Data) == 0 {
			continue
		}
		if err := json.Unmarshal(env.Data, rec); err != nil {
			continue
		}
		switch v := rec.(type) {
		case *VerificationRecord:
			records = append(records, *v)
		case *SkillAssessment:
			records = append(records, *v)
		case *BackgroundCheck:
			records = append(records, *v)
		case *PortfolioReview:
			records = append(records, *v)
		}
	}
	return records, nil
}
