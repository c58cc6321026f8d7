package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/feedbackforge/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
}

func exportRecords() []models.InteractionRecord {
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	return []models.InteractionRecord{
		{
			ID: "rec-high", Timestamp: base, Category: "weather",
			Prompt: "Weather in Oslo?", Response: "Sunny, 18C.",
			Rating: intPtr(5),
		},
		{
			ID: "rec-low", Timestamp: base.Add(time.Minute), Category: "weather",
			Prompt: "Weather in Bergen?", Response: "No idea.",
			Rating: intPtr(1), Suggestion: "Rainy, 12C.",
		},
		{
			ID: "rec-unrated", Timestamp: base.Add(2 * time.Minute), Category: "weather",
			Prompt: "Weather in Tromso?", Response: "Cold.",
		},
	}
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e := NewExporter(t.TempDir(), "You are a helpful AI assistant.", Classifier{})
	e.now = fixedClock
	return e
}

func TestExportBedrockJSONL(t *testing.T) {
	e := newTestExporter(t)

	path, count, err := e.Export(exportRecords(), FormatBedrockJSONL)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (unrated record must be excluded)", count)
	}
	if filepath.Base(path) != "training_data_20260815_103000.jsonl" {
		t.Errorf("unexpected filename %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}

	var first bedrockLine
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("parse line: %v", err)
	}
	if len(first.Messages) != 2 || first.Messages[0].Role != "user" || first.Messages[1].Role != "assistant" {
		t.Errorf("unexpected message shape: %+v", first.Messages)
	}
	if first.Messages[1].Content != "Sunny, 18C." {
		t.Errorf("assistant content = %q", first.Messages[1].Content)
	}
	if first.Metadata.Quality != string(TierHigh) || first.Metadata.Rating != 5 {
		t.Errorf("metadata = %+v", first.Metadata)
	}

	// The LOW record exports the suggestion, not the bad response.
	var second bedrockLine
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("parse line: %v", err)
	}
	if second.Messages[1].Content != "Rainy, 12C." {
		t.Errorf("LOW assistant content = %q, want suggestion", second.Messages[1].Content)
	}
}

func TestExportDeterministic(t *testing.T) {
	e := newTestExporter(t)
	records := exportRecords()

	path, _, err := e.Export(records, FormatBedrockJSONL)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	path2, _, err := e.Export(records, FormatBedrockJSONL)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	second, err := os.ReadFile(path2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("repeated export of identical input produced different bytes")
	}
}

func TestExportOpenAIChat(t *testing.T) {
	e := newTestExporter(t)

	path, count, err := e.Export(exportRecords(), FormatOpenAIChat)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var line openAILine
	if err := json.Unmarshal([]byte(strings.SplitN(string(data), "\n", 2)[0]), &line); err != nil {
		t.Fatalf("parse line: %v", err)
	}
	if len(line.Messages) != 3 || line.Messages[0].Role != "system" {
		t.Fatalf("unexpected message shape: %+v", line.Messages)
	}
	if line.Messages[0].Content != "You are a helpful AI assistant." {
		t.Errorf("system content = %q", line.Messages[0].Content)
	}
}

func TestExportJSON(t *testing.T) {
	e := newTestExporter(t)

	path, count, err := e.Export(exportRecords(), FormatJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse doc: %v", err)
	}
	if doc.Metadata.Format != "feedback_training_v1" {
		t.Errorf("format = %q", doc.Metadata.Format)
	}
	if doc.Metadata.TotalExamples != count || len(doc.Examples) != count {
		t.Errorf("total = %d examples = %d count = %d", doc.Metadata.TotalExamples, len(doc.Examples), count)
	}
	if doc.Examples[1].Response != "Rainy, 12C." {
		t.Errorf("LOW example response = %q, want suggestion", doc.Examples[1].Response)
	}
}

func TestExportCSVIncludesAllRecords(t *testing.T) {
	e := newTestExporter(t)

	// CSV is the full audit dump: every record with its derived tier.
	path, count, err := e.Export(exportRecords(), FormatCSV)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("row count = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "id" || rows[0][12] != "quality_tier" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[3][12] != string(TierExcluded) {
		t.Errorf("unrated tier = %q, want EXCLUDED", rows[3][12])
	}
	if rows[1][5] != "5" {
		t.Errorf("rating column = %q, want 5", rows[1][5])
	}
}

func TestExportSQLite(t *testing.T) {
	e := newTestExporter(t)

	path, count, err := e.Export(exportRecords(), FormatSQLite)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open exported db: %v", err)
	}
	var rows []exportRow
	if err := db.Table("prompts").Order("timestamp").Find(&rows).Error; err != nil {
		t.Fatalf("read prompts table: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[0].QualityTier != string(TierHigh) {
		t.Errorf("first row tier = %q, want HIGH", rows[0].QualityTier)
	}
	if rows[2].Rating != nil {
		t.Error("unrated row should keep NULL rating")
	}
}

func TestExportNoTempFilesLeftBehind(t *testing.T) {
	e := newTestExporter(t)

	if _, _, err := e.Export(exportRecords(), FormatBedrockJSONL); err != nil {
		t.Fatalf("Export: %v", err)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".export-") || strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", entry.Name())
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"bedrock_jsonl", "openai_chat", "json", "csv", "sqlite"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) = %v", name, err)
		}
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
