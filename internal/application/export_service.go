package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchchat/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetWriter is the part of the Google Sheets client the export needs.
type SheetWriter interface {
	ClearRange(spreadsheetID, rangeStr string) error
	UpdateValues(spreadsheetID, rangeStr string, values [][]interface{}) error
}

// ExportService writes session transcripts out as JSON, Excel or a Google Sheet.
type ExportService struct {
	sessions      *SessionManager
	stats         *StatsService
	sheets        SheetWriter
	spreadsheetID string
	logger        Logger
}

func NewExportService(sessions *SessionManager, data *MatchDataStore, sheets SheetWriter, spreadsheetID string, logger Logger) *ExportService {
	return &ExportService{
		sessions:      sessions,
		stats:         NewStatsService(data),
		sheets:        sheets,
		spreadsheetID: spreadsheetID,
		logger:        orNop(logger),
	}
}

type transcript struct {
	SessionID  string          `json:"session_id"`
	Match      models.MatchRef `json:"match"`
	ExportedAt time.Time       `json:"exported_at"`
	Turns      []models.Turn   `json:"turns"`
}

func (e *ExportService) JSON(sessionID string) ([]byte, error) {
	view, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(transcript{
		SessionID:  view.ID,
		Match:      view.Match,
		ExportedAt: time.Now().UTC(),
		Turns:      view.Turns,
	}, "", "  ")
}

// Excel builds a workbook with the chat and, when the match data loads, a
// team statistics sheet.
func (e *ExportService) Excel(ctx context.Context, sessionID string) ([]byte, error) {
	view, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for r, row := range transcriptRows(view.Turns) {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(exportSheetName, cell, v)
		}
	}
	f.SetColWidth(exportSheetName, "A", "A", 20)
	f.SetColWidth(exportSheetName, "B", "B", 10)
	f.SetColWidth(exportSheetName, "C", "C", 80)
	f.SetColWidth(exportSheetName, "D", "D", 30)

	if view.HasMatch() {
		teams, err := e.stats.TeamStats(ctx, view.Match.MatchID)
		switch {
		case err == nil:
			if err := writeTeamSheet(f, teams); err != nil {
				return nil, err
			}
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			e.logger.Warn("export of session %s without stats sheet: %v", sessionID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTeamSheet(f *excelize.File, teams []TeamStats) error {
	if _, err := f.NewSheet(exportStatsSheet); err != nil {
		return fmt.Errorf("failed to create stats sheet: %w", err)
	}

	headers := []string{"Team", "Goals", "Shots", "On target", "On target %", "xG", "Passes", "Pass %", "Fouls", "Corners", "Yellow", "Red", "Offsides"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportStatsSheet, cell, h)
	}

	row := 2
	for _, t := range teams {
		values := []interface{}{
			t.Team, t.Goals, t.Shots, t.ShotsOnTarget,
			fmt.Sprintf("%.1f%%", t.OnTargetRatio()*100), fmt.Sprintf("%.2f", t.XG),
			t.Passes, fmt.Sprintf("%.1f%%", t.PassCompletion()*100),
			t.Fouls, t.Corners, t.YellowCards, t.RedCards, t.Offsides,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(exportStatsSheet, cell, v)
		}
		row++
	}

	f.SetColWidth(exportStatsSheet, "A", "A", 20)
	f.SetColWidth(exportStatsSheet, "B", "M", 12)
	return nil
}

// SyncSheet overwrites the configured Google Sheet with the transcript.
func (e *ExportService) SyncSheet(sessionID string) (string, error) {
	if e.sheets == nil || e.spreadsheetID == "" {
		return "", fmt.Errorf("%w: SPREADSHEET_ID", models.ErrConfiguration)
	}
	view, err := e.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	if err := e.sheets.ClearRange(e.spreadsheetID, exportSheetsRange); err != nil {
		return "", fmt.Errorf("failed to clear spreadsheet: %w", err)
	}
	if err := e.sheets.UpdateValues(e.spreadsheetID, "A1", transcriptRows(view.Turns)); err != nil {
		return "", fmt.Errorf("failed to update spreadsheet: %w", err)
	}
	e.logger.Info("synced %d turns of session %s to spreadsheet", len(view.Turns), sessionID)
	return e.SpreadsheetURL(), nil
}

func (e *ExportService) SpreadsheetURL() string {
	if e.spreadsheetID == "" {
		return ""
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", e.spreadsheetID)
}

func transcriptRows(turns []models.Turn) [][]interface{} {
	rows := [][]interface{}{{"Time", "Role", "Text", "Sources"}}
	for _, t := range turns {
		var sources []string
		for _, s := range t.Snippets {
			sources = append(sources, fmt.Sprintf("%s (%s)", s.Title, s.Source))
		}
		rows = append(rows, []interface{}{
			t.CreatedAt.UTC().Format(time.RFC3339),
			string(t.Role),
			t.Text,
			strings.Join(sources, "; "),
		})
	}
	return rows
}
