package postgres

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"
	"gosurv/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// tableSource loads a numeric table from a SQL query
type tableSource struct {
	db    *sqlx.DB
	query string
	args  []interface{}
}

// NewTableSource creates a table source that runs query on every load
func NewTableSource(db *sqlx.DB, query string, args ...interface{}) ports.TableSource {
	return &tableSource{db: db, query: query, args: args}
}

// Connect opens a PostgreSQL connection pool
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

// LoadTable runs the query and converts every column to float64.
// Rows holding NULL or non-numeric values are dropped.
func (s *tableSource) LoadTable(ctx context.Context) (*dataset.Table, error) {
	start := time.Now()
	rows, err := s.db.QueryxContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to run dataset query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read result columns", err)
	}

	var values [][]float64
	dropped := 0
	for rows.Next() {
		record := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(record); err != nil {
			return nil, errors.DatabaseError("failed to scan row", err)
		}
		row, ok := convertRecord(columns, record)
		if !ok {
			dropped++
			continue
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate rows", err)
	}

	if dropped > 0 {
		log.Printf("[TableSource] Dropped %d rows with NULL or non-numeric values", dropped)
	}

	table, err := dataset.NewTableFromRows(columns, values)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	log.Printf("[TableSource] Loaded %d rows x %d columns in %v", table.NumRows(), table.NumCols(), time.Since(start))
	return table, nil
}

func convertRecord(columns []string, record map[string]interface{}) ([]float64, bool) {
	row := make([]float64, len(columns))
	for j, c := range columns {
		v, err := toFloat(record[c])
		if err != nil {
			return nil, false
		}
		row[j] = v
	}
	return row, true
}

// toFloat converts a driver value to float64
func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("null value")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	case time.Time:
		return 0, fmt.Errorf("timestamp columns must be converted to durations in the query")
	default:
		return 0, fmt.Errorf("unsupported column type %T", value)
	}
}

// parseNumeric handles NUMERIC columns, which lib/pq returns as text
func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "t", "true":
		return 1, nil
	case "f", "false":
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("NaN value")
	}
	return f, nil
}
