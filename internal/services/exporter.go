package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/feedbackforge/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ExportFormat names a supported training-file format.
type ExportFormat string

const (
	FormatBedrockJSONL ExportFormat = "bedrock_jsonl"
	FormatOpenAIChat   ExportFormat = "openai_chat"
	FormatJSON         ExportFormat = "json"
	FormatCSV          ExportFormat = "csv"
	FormatSQLite       ExportFormat = "sqlite"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case FormatBedrockJSONL, FormatOpenAIChat, FormatJSON, FormatCSV, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrValidation, s)
	}
}

func (f ExportFormat) ext() string {
	switch f {
	case FormatBedrockJSONL:
		return "jsonl"
	case FormatOpenAIChat:
		return "openai.jsonl"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatSQLite:
		return "db"
	default:
		return "dat"
	}
}

// Exporter serializes selected records into training files. Exports never
// touch the record store and are deterministic for identical input: byte
// ordering follows input iteration order and no wall-clock data is written
// into file contents (only the filename carries a timestamp).
type Exporter struct {
	dir          string
	systemPrompt string
	classifier   Classifier
	now          func() time.Time
}

func NewExporter(dir, systemPrompt string, classifier Classifier) *Exporter {
	return &Exporter{
		dir:          dir,
		systemPrompt: systemPrompt,
		classifier:   classifier,
		now:          time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockMetadata struct {
	Rating  int    `json:"rating"`
	Quality string `json:"quality"`
}

type bedrockLine struct {
	Messages []chatMessage   `json:"messages"`
	Metadata bedrockMetadata `json:"metadata"`
}

type openAILine struct {
	Messages []chatMessage `json:"messages"`
}

type jsonDocMetadata struct {
	Format        string `json:"format"`
	TotalExamples int    `json:"total_examples"`
}

type jsonDoc struct {
	Metadata jsonDocMetadata   `json:"metadata"`
	Examples []TrainingExample `json:"examples"`
}

// exportRow is the tabular shape shared by the csv and sqlite formats:
// the record fields plus the derived quality tier.
type exportRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	Timestamp         string `gorm:"size:40"`
	Category          string `gorm:"size:100"`
	Prompt            string `gorm:"type:text"`
	Response          string `gorm:"type:text"`
	Rating            *int
	AccuracyRating    *int
	HelpfulnessRating *int
	ClarityRating     *int
	FeedbackText      string `gorm:"type:text"`
	Suggestion        string `gorm:"type:text"`
	Approved          bool
	QualityTier       string `gorm:"size:20"`
}

func (exportRow) TableName() string { return "prompts" }

// Export writes the given records in the requested format and returns the
// final file path and the number of examples written. The file is written
// to a temporary path and renamed on success, so a failed export never
// leaves a truncated file that parses as valid.
func (e *Exporter) Export(records []models.InteractionRecord, format ExportFormat) (string, int, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", 0, fmt.Errorf("%w: create export dir: %v", ErrExport, err)
	}

	stamp := e.now().UTC().Format("20060102_150405")
	finalPath := filepath.Join(e.dir, fmt.Sprintf("training_data_%s.%s", stamp, format.ext()))

	if format == FormatSQLite {
		count, err := e.writeSQLite(records, finalPath)
		return finalPath, count, err
	}

	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return "", 0, fmt.Errorf("%w: create temp file: %v", ErrExport, err)
	}
	tmpPath := tmp.Name()

	count, werr := e.write(tmp, records, format)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("%w: write %s: %v", ErrExport, format, werr)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("%w: rename export file: %v", ErrExport, err)
	}
	return finalPath, count, nil
}

func (e *Exporter) write(f *os.File, records []models.InteractionRecord, format ExportFormat) (int, error) {
	switch format {
	case FormatBedrockJSONL:
		return e.writeBedrock(f, records)
	case FormatOpenAIChat:
		return e.writeOpenAI(f, records)
	case FormatJSON:
		return e.writeJSON(f, records)
	case FormatCSV:
		return e.writeCSV(f, records)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
}

func (e *Exporter) writeBedrock(f *os.File, records []models.InteractionRecord) (int, error) {
	count := 0
	for i := range records {
		ex, ok := e.classifier.BuildExample(&records[i])
		if !ok {
			continue
		}
		line := bedrockLine{
			Messages: []chatMessage{
				{Role: "user", Content: ex.Prompt},
				{Role: "assistant", Content: ex.Response},
			},
			Metadata: bedrockMetadata{Rating: ex.Rating, Quality: ex.QualityTier},
		}
		if err := writeJSONLine(f, line); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (e *Exporter) writeOpenAI(f *os.File, records []models.InteractionRecord) (int, error) {
	count := 0
	for i := range records {
		ex, ok := e.classifier.BuildExample(&records[i])
		if !ok {
			continue
		}
		line := openAILine{
			Messages: []chatMessage{
				{Role: "system", Content: e.systemPrompt},
				{Role: "user", Content: ex.Prompt},
				{Role: "assistant", Content: ex.Response},
			},
		}
		if err := writeJSONLine(f, line); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (e *Exporter) writeJSON(f *os.File, records []models.InteractionRecord) (int, error) {
	examples := make([]TrainingExample, 0, len(records))
	for i := range records {
		if ex, ok := e.classifier.BuildExample(&records[i]); ok {
			examples = append(examples, ex)
		}
	}

	doc := jsonDoc{
		Metadata: jsonDocMetadata{Format: "feedback_training_v1", TotalExamples: len(examples)},
		Examples: examples,
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, err
	}
	return len(examples), nil
}

func (e *Exporter) writeCSV(f *os.File, records []models.InteractionRecord) (int, error) {
	w := csv.NewWriter(f)
	header := []string{
		"id", "timestamp", "category", "prompt", "response",
		"rating", "accuracy_rating", "helpfulness_rating", "clarity_rating",
		"feedback_text", "suggestion", "approved", "quality_tier",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	count := 0
	for i := range records {
		rec := &records[i]
		cls := e.classifier.Classify(rec)
		row := []string{
			rec.ID,
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Category,
			rec.Prompt,
			rec.Response,
			formatRating(rec.Rating),
			formatRating(rec.AccuracyRating),
			formatRating(rec.HelpfulnessRating),
			formatRating(rec.ClarityRating),
			rec.FeedbackText,
			rec.Suggestion,
			strconv.FormatBool(rec.Approved),
			string(cls.Tier),
		}
		if err := w.Write(row); err != nil {
			return count, err
		}
		count++
	}
	w.Flush()
	return count, w.Error()
}

func (e *Exporter) writeSQLite(records []models.InteractionRecord, finalPath string) (int, error) {
	tmpPath := finalPath + ".tmp"
	os.Remove(tmpPath)

	db, err := gorm.Open(sqlite.Open(tmpPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: open sqlite export: %v", ErrExport, err)
	}

	count, werr := e.fillSQLite(db, records)

	if sqlDB, derr := db.DB(); derr == nil {
		sqlDB.Close()
	}
	if werr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: write sqlite export: %v", ErrExport, werr)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: rename sqlite export: %v", ErrExport, err)
	}
	return count, nil
}

func (e *Exporter) fillSQLite(db *gorm.DB, records []models.InteractionRecord) (int, error) {
	if err := db.AutoMigrate(&exportRow{}); err != nil {
		return 0, err
	}

	count := 0
	for i := range records {
		rec := &records[i]
		cls := e.classifier.Classify(rec)
		row := exportRow{
			ID:                rec.ID,
			Timestamp:         rec.Timestamp.UTC().Format(time.RFC3339),
			Category:          rec.Category,
			Prompt:            rec.Prompt,
			Response:          rec.Response,
			Rating:            rec.Rating,
			AccuracyRating:    rec.AccuracyRating,
			HelpfulnessRating: rec.HelpfulnessRating,
			ClarityRating:     rec.ClarityRating,
			FeedbackText:      rec.FeedbackText,
			Suggestion:        rec.Suggestion,
			Approved:          rec.Approved,
			QualityTier:       string(cls.Tier),
		}
		if err := db.Create(&row).Error; err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func writeJSONLine(f *os.File, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}

func formatRating(r *int) string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(*r)
}
