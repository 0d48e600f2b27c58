// Package sheets mirrors daily farm summaries into a Google Sheet so the
// numbers can be eyeballed outside the API.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

const summaryRange = "Summaries!A:G"

// SummarySink receives daily summaries for external mirroring.
type SummarySink interface {
	AppendSummary(ctx context.Context, summary models.DailySummary) error
}

// GoogleSheetSink implements SummarySink using the official Google Sheets API.
type GoogleSheetSink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetSink builds a Google Sheets backed summary sink.
func NewGoogleSheetSink(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetSink{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSummary appends one summary row:
// date, eggs, mortality, feed used, revenue, expenses, profit.
func (s *GoogleSheetSink) AppendSummary(ctx context.Context, summary models.DailySummary) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{{
		summary.Date.Format("2006-01-02"),
		summary.EggsCollected,
		summary.Mortality,
		summary.FeedUsed,
		summary.Revenue,
		summary.Expenses,
		summary.Profit,
	}}}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, summaryRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append summary row: %w", err)
	}

	s.logger.Debug("summary row appended to sheet", zap.Time("date", summary.Date))
	return nil
}
