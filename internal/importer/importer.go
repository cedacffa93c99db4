// Package importer loads machine-generated candidate pairs into a
// campaign from CSV or JSON exports. Each run is tagged with a batch ID
// so an import can be traced afterwards.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// ColumnMapping names the CSV columns holding each pair attribute.
// SourceText and TargetText are required; empty fields are ignored.
type ColumnMapping struct {
	SourceText    string `yaml:"source_text"`
	SourceID      string `yaml:"source_id"`
	SourceDataset string `yaml:"source_dataset"`
	TargetText    string `yaml:"target_text"`
	TargetID      string `yaml:"target_id"`
	TargetDataset string `yaml:"target_dataset"`
	Confidence    string `yaml:"confidence"`
	Model         string `yaml:"model"`
	Reasoning     string `yaml:"reasoning"`
	PairType      string `yaml:"pair_type"`
}

// DefaultMapping matches the column names of the standard pipeline export.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		SourceText:    "source_text",
		SourceID:      "source_id",
		SourceDataset: "source_dataset",
		TargetText:    "target_text",
		TargetID:      "target_id",
		TargetDataset: "target_dataset",
		Confidence:    "llm_confidence",
		Model:         "llm_model",
		Reasoning:     "llm_reasoning",
		PairType:      "pair_type",
	}
}

// Result summarizes one import run. Rows that failed validation are
// reported in Errors and not inserted; duplicate rows count as Skipped.
type Result struct {
	BatchID  string
	Imported int
	Skipped  int
	Errors   []string
}

// ImportCSV reads candidate pairs from a CSV stream and inserts them
// into the campaign in one transaction.
func ImportCSV(db *database.DB, campaignID int64, r io.Reader, mapping ColumnMapping) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[mapping.SourceText]; !ok {
		return nil, fmt.Errorf("CSV missing source text column %q", mapping.SourceText)
	}
	if _, ok := columns[mapping.TargetText]; !ok {
		return nil, fmt.Errorf("CSV missing target text column %q", mapping.TargetText)
	}

	result := &Result{BatchID: uuid.NewString()}
	var pairs []database.Pair
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		field := func(column string) *string {
			idx, ok := columns[column]
			if !ok || column == "" || idx >= len(record) {
				return nil
			}
			value := strings.TrimSpace(record[idx])
			if value == "" {
				return nil
			}
			return &value
		}

		p := database.Pair{
			CampaignID:    campaignID,
			PairType:      field(mapping.PairType),
			SourceID:      field(mapping.SourceID),
			SourceDataset: field(mapping.SourceDataset),
			TargetID:      field(mapping.TargetID),
			TargetDataset: field(mapping.TargetDataset),
			LLMModel:      field(mapping.Model),
			LLMReasoning:  field(mapping.Reasoning),
		}
		if text := field(mapping.SourceText); text != nil {
			p.SourceText = *text
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty source text", line))
			continue
		}
		if text := field(mapping.TargetText); text != nil {
			p.TargetText = *text
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty target text", line))
			continue
		}
		if raw := field(mapping.Confidence); raw != nil {
			confidence, err := strconv.ParseFloat(*raw, 64)
			if err != nil || confidence < 0 || confidence > 1 {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid confidence %q", line, *raw))
				continue
			}
			p.LLMConfidence = &confidence
		}
		p.ImportBatch = &result.BatchID
		pairs = append(pairs, p)
	}

	return finishImport(db, campaignID, pairs, result)
}

// pairRecord is the JSON shape of one candidate pair.
type pairRecord struct {
	PairType       *string         `json:"pair_type"`
	SourceText     string          `json:"source_text"`
	SourceID       *string         `json:"source_id"`
	SourceDataset  *string         `json:"source_dataset"`
	SourceMetadata json.RawMessage `json:"source_metadata"`
	TargetText     string          `json:"target_text"`
	TargetID       *string         `json:"target_id"`
	TargetDataset  *string         `json:"target_dataset"`
	TargetMetadata json.RawMessage `json:"target_metadata"`
	LLMConfidence  *float64        `json:"llm_confidence"`
	LLMModel       *string         `json:"llm_model"`
	LLMReasoning   *string         `json:"llm_reasoning"`
}

// ImportJSON reads a JSON array of candidate pairs and inserts them
// into the campaign in one transaction.
func ImportJSON(db *database.DB, campaignID int64, r io.Reader) (*Result, error) {
	var records []pairRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding JSON pairs: %w", err)
	}

	result := &Result{BatchID: uuid.NewString()}
	var pairs []database.Pair
	for i, rec := range records {
		if rec.SourceText == "" || rec.TargetText == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: missing source or target text", i))
			continue
		}
		if rec.LLMConfidence != nil && (*rec.LLMConfidence < 0 || *rec.LLMConfidence > 1) {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: confidence %v outside [0,1]", i, *rec.LLMConfidence))
			continue
		}
		p := database.Pair{
			CampaignID:     campaignID,
			PairType:       rec.PairType,
			SourceText:     rec.SourceText,
			SourceID:       rec.SourceID,
			SourceDataset:  rec.SourceDataset,
			SourceMetadata: rawString(rec.SourceMetadata),
			TargetText:     rec.TargetText,
			TargetID:       rec.TargetID,
			TargetDataset:  rec.TargetDataset,
			TargetMetadata: rawString(rec.TargetMetadata),
			LLMConfidence:  rec.LLMConfidence,
			LLMModel:       rec.LLMModel,
			LLMReasoning:   rec.LLMReasoning,
			ImportBatch:    &result.BatchID,
		}
		pairs = append(pairs, p)
	}

	return finishImport(db, campaignID, pairs, result)
}

func finishImport(db *database.DB, campaignID int64, pairs []database.Pair, result *Result) (*Result, error) {
	if len(pairs) == 0 {
		return result, nil
	}
	inserted, skipped, err := db.InsertPairs(campaignID, pairs)
	if err != nil {
		return nil, err
	}
	result.Imported = inserted
	result.Skipped = skipped
	return result, nil
}

func rawString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}
