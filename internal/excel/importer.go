package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/metrics"
	"github.com/example/precedents/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

// Header names recognised in the first row, case-insensitively
const (
	ColSubject      = "subject"
	ColCourt        = "court"
	ColKind         = "kind"
	ColNumber       = "number"
	ColTitle        = "title"
	ColThesis       = "thesis"
	ColJudgedAt     = "judged_at"
	ColTags         = "tags"
	ColJudgeState   = "judge_state"
	ColJudgeFederal = "judge_federal"
	ColProsecutor   = "prosecutor"
	ColNotes        = "notes"
	ColActive       = "active"
)

var requiredColumns = []string{ColSubject, ColCourt, ColNumber, ColTitle, ColThesis}

// ImportConfig defines the import configuration
type ImportConfig struct {
	SheetName string // Sheet to import; the first sheet when empty
	DryRun    bool   // Validate rows without writing
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int      `json:"total_processed"`
	SubjectsCreated int      `json:"subjects_created"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors"`
}

// PrecedentRow is one validated spreadsheet row
type PrecedentRow struct {
	Subject  string `validate:"required,max=200"`
	Court    string `validate:"required,max=20"`
	Kind     string `validate:"max=50"`
	Number   string `validate:"required,max=50"`
	Title    string `validate:"required,max=500"`
	Thesis   string `validate:"required"`
	Notes    string
	JudgedAt *time.Time
	Tags     []string `validate:"dive,max=60"`
	Active   bool
	models.Applicability
}

// ErrInvalidFile marks files that cannot be read as an import: unknown
// type, unreadable contents or a bad header row
var ErrInvalidFile = errors.New("invalid import file")

// Importer loads precedents from spreadsheets
type Importer struct {
	subjects   *database.SubjectRepository
	precedents *database.PrecedentRepository
	validate   *validator.Validate
}

// NewImporter creates an importer writing through the given repositories
func NewImporter(subjects *database.SubjectRepository, precedents *database.PrecedentRepository) *Importer {
	return &Importer{
		subjects:   subjects,
		precedents: precedents,
		validate:   validator.New(),
	}
}

// ImportFile imports precedents from an Excel or CSV file on disk
func (im *Importer) ImportFile(ctx context.Context, path string, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return im.Import(ctx, file, filepath.Base(path), config)
}

// Import reads rows from r; the file name's extension selects CSV or Excel
func (im *Importer) Import(ctx context.Context, r io.Reader, filename string, config ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(r, config.SheetName)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q, expected .xlsx or .csv", ErrInvalidFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return im.importRows(ctx, rows, config)
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %w", ErrInvalidFile, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows: %w", ErrInvalidFile, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: error reading CSV: %w", ErrInvalidFile, err)
	}
	return rows, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, config ImportConfig) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	header, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	existing, err := im.subjects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing subjects: %w", err)
	}
	// Map subject names to IDs for quick lookup
	subjectMap := make(map[string]int64, len(existing))
	for _, s := range existing {
		subjectMap[strings.ToLower(s.Name)] = s.ID
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		if err := im.processRow(ctx, header, row, subjectMap, config, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			metrics.ImportedRows.WithLabelValues("error").Inc()
		}
	}
	return result, nil
}

func (im *Importer) processRow(ctx context.Context, header map[string]int, row []string,
	subjectMap map[string]int64, config ImportConfig, result *ImportResult) error {
	parsed, err := parseRow(header, row)
	if err != nil {
		return err
	}
	if err := im.validate.Struct(parsed); err != nil {
		return describeValidation(err)
	}
	if config.DryRun {
		return nil
	}

	subjectID, err := im.getOrCreateSubject(ctx, parsed, subjectMap, result)
	if err != nil {
		return err
	}

	precedent := &models.Precedent{
		SubjectID:     subjectID,
		Court:         parsed.Court,
		Kind:          parsed.Kind,
		Number:        parsed.Number,
		Title:         parsed.Title,
		Thesis:        parsed.Thesis,
		Notes:         parsed.Notes,
		JudgedAt:      parsed.JudgedAt,
		Tags:          models.NormalizeTags(parsed.Tags),
		Active:        parsed.Active,
		Applicability: parsed.Applicability,
	}

	existing, err := im.precedents.FindByCourtAndNumber(ctx, parsed.Court, parsed.Number)
	switch {
	case errors.Is(err, database.ErrNotFound):
		if err := im.precedents.Create(ctx, precedent); err != nil {
			return err
		}
		result.Created++
		metrics.ImportedRows.WithLabelValues("created").Inc()
	case err != nil:
		return err
	default:
		precedent.ID = existing.ID
		if err := im.precedents.Update(ctx, precedent); err != nil {
			return err
		}
		result.Updated++
		metrics.ImportedRows.WithLabelValues("updated").Inc()
	}
	return nil
}

// getOrCreateSubject gets a subject by name or creates it with the
// applicability of the row that introduced it
func (im *Importer) getOrCreateSubject(ctx context.Context, row *PrecedentRow, subjectMap map[string]int64, result *ImportResult) (int64, error) {
	key := strings.ToLower(row.Subject)
	if id, ok := subjectMap[key]; ok {
		return id, nil
	}

	subject := &models.Subject{
		Name:          row.Subject,
		Position:      len(subjectMap) + 1,
		Applicability: row.Applicability,
	}
	if err := im.subjects.Create(ctx, subject); err != nil {
		return 0, fmt.Errorf("failed to create subject: %w", err)
	}
	subjectMap[key] = subject.ID
	result.SubjectsCreated++
	return subject.ID, nil
}

func parseHeader(row []string) (map[string]int, error) {
	header := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(name))
		name = strings.ReplaceAll(name, " ", "_")
		if name != "" {
			header[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", ErrInvalidFile, strings.Join(missing, ", "))
	}
	return header, nil
}

func parseRow(header map[string]int, row []string) (*PrecedentRow, error) {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := &PrecedentRow{
		Subject: cell(ColSubject),
		Court:   strings.ToUpper(cell(ColCourt)),
		Kind:    cell(ColKind),
		Number:  cell(ColNumber),
		Title:   cell(ColTitle),
		Thesis:  cell(ColThesis),
		Notes:   cell(ColNotes),
		Active:  true,
		Applicability: models.Applicability{
			JudgeState:   ParseFlag(cell(ColJudgeState)),
			JudgeFederal: ParseFlag(cell(ColJudgeFederal)),
			Prosecutor:   ParseFlag(cell(ColProsecutor)),
		},
	}
	if v := cell(ColActive); v != "" {
		parsed.Active = ParseFlag(v)
	}
	if v := cell(ColTags); v != "" {
		parsed.Tags = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	}
	if v := cell(ColJudgedAt); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		parsed.JudgedAt = &t
	}
	if !parsed.Any() {
		return nil, errors.New("no track marked")
	}
	return parsed, nil
}

// ParseFlag interprets spreadsheet truthy values
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "1", "true", "yes", "y", "sim", "s":
		return true
	}
	return false
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01-02-06"}

// ParseDate accepts ISO dates, dd/mm/yyyy and the mm-dd-yy form excelize
// uses for date cells
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
