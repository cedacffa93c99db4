package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

func openTestDB(t *testing.T) (*database.DB, int64) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	campaignID, err := db.InsertCampaign("import-target", nil, "entity_matching")
	if err != nil {
		t.Fatalf("creating campaign: %v", err)
	}
	return db, campaignID
}

func TestImportCSVDefaultMapping(t *testing.T) {
	db, campaignID := openTestDB(t)
	csvData := `source_text,source_id,target_text,target_id,llm_confidence,llm_model
Hemoglobin A1c,L1,HbA1c measurement,C1,0.92,gpt-4o
Serum glucose,L2,Blood glucose level,C2,0.55,gpt-4o
`
	result, err := ImportCSV(db, campaignID, strings.NewReader(csvData), DefaultMapping())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.BatchID == "" {
		t.Error("expected a batch ID")
	}

	pairs, err := db.PairsForCampaign(campaignID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	p := pairs[0]
	if p.SourceText != "Hemoglobin A1c" || p.TargetText != "HbA1c measurement" {
		t.Errorf("unexpected texts: %+v", p)
	}
	if p.LLMConfidence == nil || *p.LLMConfidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %v", p.LLMConfidence)
	}
	if p.ImportBatch == nil || *p.ImportBatch != result.BatchID {
		t.Error("expected pairs tagged with the batch ID")
	}
}

func TestImportCSVCustomMapping(t *testing.T) {
	db, campaignID := openTestDB(t)
	csvData := `lab_name,loinc_code,score
Creatinine,2160-0,0.8
`
	mapping := ColumnMapping{
		SourceText: "lab_name",
		TargetText: "loinc_code",
		Confidence: "score",
	}
	result, err := ImportCSV(db, campaignID, strings.NewReader(csvData), mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported, got %+v", result)
	}
	pairs, _ := db.PairsForCampaign(campaignID)
	if pairs[0].SourceText != "Creatinine" || pairs[0].TargetText != "2160-0" {
		t.Errorf("custom mapping not applied: %+v", pairs[0])
	}
}

func TestImportCSVMissingRequiredColumn(t *testing.T) {
	db, campaignID := openTestDB(t)
	csvData := "source_text,other\nfoo,bar\n"
	_, err := ImportCSV(db, campaignID, strings.NewReader(csvData), DefaultMapping())
	if err == nil {
		t.Fatal("expected error for missing target text column")
	}
}

func TestImportCSVRowValidation(t *testing.T) {
	db, campaignID := openTestDB(t)
	csvData := `source_text,target_text,llm_confidence
good row,target,0.5
,missing source,0.5
bad confidence,target,1.5
not a number,target,high
`
	result, err := ImportCSV(db, campaignID, strings.NewReader(csvData), DefaultMapping())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("expected 1 imported, got %d", result.Imported)
	}
	if len(result.Errors) != 3 {
		t.Errorf("expected 3 row errors, got %v", result.Errors)
	}
}

func TestImportCSVDuplicatesSkipped(t *testing.T) {
	db, campaignID := openTestDB(t)
	csvData := `source_text,source_id,target_text,target_id
Sodium,L1,Na serum,C1
`
	first, err := ImportCSV(db, campaignID, strings.NewReader(csvData), DefaultMapping())
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Imported != 1 {
		t.Fatalf("expected 1 imported, got %+v", first)
	}

	second, err := ImportCSV(db, campaignID, strings.NewReader(csvData), DefaultMapping())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Imported != 0 || second.Skipped != 1 {
		t.Errorf("expected re-import to skip, got %+v", second)
	}
}

func TestImportJSON(t *testing.T) {
	db, campaignID := openTestDB(t)
	jsonData := `[
		{"source_text": "Potassium", "source_id": "L1", "target_text": "K serum", "target_id": "C1",
		 "llm_confidence": 0.88, "source_metadata": {"units": "mmol/L"}},
		{"source_text": "", "target_text": "orphan"},
		{"source_text": "Chloride", "target_text": "Cl serum", "llm_confidence": 2.0}
	]`
	result, err := ImportJSON(db, campaignID, strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("expected 1 imported, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 record errors, got %v", result.Errors)
	}

	pairs, _ := db.PairsForCampaign(campaignID)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].SourceMetadata == nil || !strings.Contains(*pairs[0].SourceMetadata, "mmol/L") {
		t.Errorf("expected source metadata to survive as JSON, got %v", pairs[0].SourceMetadata)
	}
	if pairs[0].ImportBatch == nil || *pairs[0].ImportBatch != result.BatchID {
		t.Error("expected pair tagged with the batch ID")
	}
}

func TestImportJSONMalformed(t *testing.T) {
	db, campaignID := openTestDB(t)
	if _, err := ImportJSON(db, campaignID, strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
