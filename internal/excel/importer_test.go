package excel

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeader = []interface{}{"Subject", "Court", "Kind", "Number", "Title", "Thesis", "Judged_At", "Tags", "Judge_State", "Judge_Federal", "Prosecutor", "Notes"}

func newImporter(t *testing.T) (*Importer, *database.SubjectRepository, *database.PrecedentRepository) {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	subjects := database.NewSubjectRepository(db)
	precedents := database.NewPrecedentRepository(db)
	return NewImporter(subjects, precedents), subjects, precedents
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "precedents.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFileExcel(t *testing.T) {
	im, subjects, precedents := newImporter(t)
	ctx := context.Background()

	path := writeWorkbook(t, [][]interface{}{
		testHeader,
		{"Civil Law", "stj", "súmula", "Súmula 54", "Default interest", "Interest runs from the event.", "2019-09-24", "interest; tort", "x", "x", "", "classic"},
		{"Civil Law", "STJ", "súmula", "Súmula 385", "Credit registry", "No moral damages if prior entries exist.", "27/05/2009", "", "sim", "", "1", ""},
		{"Tax Law", "STF", "tema", "Tema 69", "ICMS in PIS base", "ICMS is not part of the PIS base.", "", "tax", "", "true", "", ""},
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		{"Tax Law", "STF", "tema", "", "Missing number", "Thesis", "", "", "", "x", "", ""},
	})

	result, err := im.ImportFile(ctx, path, ImportConfig{})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.SubjectsCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "number failed required")

	civil, err := subjects.GetByName(ctx, "Civil Law")
	require.NoError(t, err)
	assert.True(t, civil.JudgeState)
	assert.True(t, civil.JudgeFederal)
	assert.False(t, civil.Prosecutor)

	p, err := precedents.FindByCourtAndNumber(ctx, "STJ", "Súmula 54")
	require.NoError(t, err)
	assert.Equal(t, civil.ID, p.SubjectID)
	assert.Equal(t, models.Tags{"interest", "tort"}, p.Tags)
	assert.Equal(t, "classic", p.Notes)
	require.NotNil(t, p.JudgedAt)
	assert.Equal(t, time.Date(2019, 9, 24, 0, 0, 0, 0, time.UTC), p.JudgedAt.UTC())
	assert.True(t, p.Active)

	p, err = precedents.FindByCourtAndNumber(ctx, "STJ", "Súmula 385")
	require.NoError(t, err)
	assert.Equal(t, models.Applicability{JudgeState: true, Prosecutor: true}, p.Applicability)
	require.NotNil(t, p.JudgedAt)
	assert.Equal(t, time.May, p.JudgedAt.Month())
}

func TestImportUpsertsByCourtAndNumber(t *testing.T) {
	im, _, precedents := newImporter(t)
	ctx := context.Background()

	first := "subject,court,number,title,thesis,judge_state\nCivil Law,STJ,Súmula 54,Old title,Old thesis,x\n"
	result, err := im.Import(ctx, strings.NewReader(first), "first.csv", ImportConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	second := "SUBJECT,Court,Number,Title,Thesis,Judge State,Prosecutor\nCivil Law,STJ,Súmula 54,New title,New thesis,x,x\n"
	result, err = im.Import(ctx, strings.NewReader(second), "second.csv", ImportConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.SubjectsCreated)

	p, err := precedents.FindByCourtAndNumber(ctx, "STJ", "Súmula 54")
	require.NoError(t, err)
	assert.Equal(t, "New title", p.Title)
	assert.True(t, p.Prosecutor)

	page, err := precedents.List(ctx, database.PrecedentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestImportDryRun(t *testing.T) {
	im, subjects, _ := newImporter(t)
	ctx := context.Background()

	data := "subject,court,number,title,thesis,judge_federal,judged_at\n" +
		"Tax Law,STF,Tema 69,ICMS,Thesis,x,2021-05-13\n" +
		"Tax Law,STF,Tema 70,Bad date,Thesis,x,13 May\n"
	result, err := im.Import(ctx, strings.NewReader(data), "dry.csv", ImportConfig{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Created)

	list, err := subjects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestImportRejectsBadInput(t *testing.T) {
	im, _, _ := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, strings.NewReader("subject,court\nA,B\n"), "x.csv", ImportConfig{})
	require.ErrorIs(t, err, ErrInvalidFile)
	assert.Contains(t, err.Error(), "missing columns")

	_, err = im.Import(ctx, bytes.NewReader(nil), "x.txt", ImportConfig{})
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = im.Import(ctx, strings.NewReader(""), "x.csv", ImportConfig{})
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = im.Import(ctx, strings.NewReader("not a zip archive"), "x.xlsx", ImportConfig{})
	assert.ErrorIs(t, err, ErrInvalidFile)

	result, err := im.Import(ctx, strings.NewReader("subject,court,number,title,thesis\nA,STJ,1,T,Th\n"), "x.csv", ImportConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Errors[0], "no track marked")
}

func TestImportStorageFailureIsNotInvalidFile(t *testing.T) {
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	im := NewImporter(database.NewSubjectRepository(db), database.NewPrecedentRepository(db))
	require.NoError(t, db.Close())

	data := "subject,court,number,title,thesis,judge_federal\nTax Law,STF,Tema 69,ICMS,Thesis,x\n"
	_, err = im.Import(context.Background(), strings.NewReader(data), "x.csv", ImportConfig{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFile)
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"x", "X", "1", "true", "Sim", "yes", " y "} {
		assert.True(t, ParseFlag(v), v)
	}
	for _, v := range []string{"", "0", "no", "não", "false"} {
		assert.False(t, ParseFlag(v), v)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	d, err = ParseDate("05/03/2021")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 5, d.Day())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}
