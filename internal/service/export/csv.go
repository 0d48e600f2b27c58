// Package export renders record collections as CSV attachments.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

const dateLayout = "2006-01-02"

func write(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Production renders production records as date,totalEggs,notes.
func Production(records []models.EggProduction) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format(dateLayout),
			strconv.Itoa(r.TotalEggs),
			r.Notes,
		})
	}
	return write([]string{"date", "totalEggs", "notes"}, rows)
}

// Expenses renders expenses as type,amount,description,date.
func Expenses(expenses []models.Expense) ([]byte, error) {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.Type,
			formatAmount(e.Amount),
			e.Description,
			e.Date.Format(dateLayout),
		})
	}
	return write([]string{"type", "amount", "description", "date"}, rows)
}

// Revenues renders revenues as source,amount,description,date.
func Revenues(revenues []models.Revenue) ([]byte, error) {
	rows := make([][]string, 0, len(revenues))
	for _, r := range revenues {
		rows = append(rows, []string{
			r.Source,
			formatAmount(r.Amount),
			r.Description,
			r.Date.Format(dateLayout),
		})
	}
	return write([]string{"source", "amount", "description", "date"}, rows)
}

// Flocks renders flocks as name,breed,numberOfHens,healthStatus,createdAt.
func Flocks(flocks []models.Flock) ([]byte, error) {
	rows := make([][]string, 0, len(flocks))
	for _, f := range flocks {
		rows = append(rows, []string{
			f.Name,
			f.Breed,
			strconv.Itoa(f.NumberOfHens),
			string(f.HealthStatus),
			f.CreatedAt.Format(time.RFC3339),
		})
	}
	return write([]string{"name", "breed", "numberOfHens", "healthStatus", "createdAt"}, rows)
}

// Mortalities renders mortality records as flockId,date,numberOfDeaths,cause.
func Mortalities(records []models.Mortality) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, m := range records {
		rows = append(rows, []string{
			m.FlockID.Hex(),
			m.Date.Format(dateLayout),
			strconv.Itoa(m.NumberOfDeaths),
			m.Cause,
		})
	}
	return write([]string{"flockId", "date", "numberOfDeaths", "cause"}, rows)
}

// Feeds renders feed batches as name,quantity,supplierName,orderDate.
func Feeds(feeds []models.Feed) ([]byte, error) {
	rows := make([][]string, 0, len(feeds))
	for _, f := range feeds {
		rows = append(rows, []string{
			f.Name,
			formatAmount(f.Quantity),
			f.Supplier.Name,
			f.OrderDate.Format(dateLayout),
		})
	}
	return write([]string{"name", "quantity", "supplierName", "orderDate"}, rows)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
