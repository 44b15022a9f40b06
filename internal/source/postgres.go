package source

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the Postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// LoadPostgres reads every row of table into a dataset, in the order the
// database returns them. table may be schema-qualified
// ("registry.lineowners").
func LoadPostgres(ctx context.Context, db Querier, table string, schema Schema) (*core.Dataset, error) {
	src := "table " + table
	if strings.TrimSpace(table) == "" {
		return nil, &core.LoadError{Source: src, Err: fmt.Errorf("DATASET_TABLE is required for a database source")}
	}

	query := "SELECT * FROM " + quoteIdentifier(table)
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, &core.LoadError{Source: src, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}

	b, err := newBuilder(src, schema, header)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, &core.LoadError{Source: src, Err: err}
		}
		record := make([]core.Value, len(vals))
		for i, v := range vals {
			record[i] = fromPg(v, b.numeric[i])
		}
		b.addValues(record)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.LoadError{Source: src, Err: err}
	}

	return b.dataset()
}

// quoteIdentifier quotes a possibly schema-qualified table name.
func quoteIdentifier(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// fromPg converts a decoded column value to a cell. Text is kept verbatim;
// text in a numeric column goes through ParseNumber.
func fromPg(v any, numeric bool) core.Value {
	switch x := v.(type) {
	case nil:
		return core.Null
	case string:
		return ParseRawCell(x, numeric)
	case []byte:
		return ParseRawCell(string(x), numeric)
	case int16:
		return core.Number(float64(x))
	case int32:
		return core.Number(float64(x))
	case int64:
		return core.Number(float64(x))
	case float32:
		return core.Number(float64(x))
	case float64:
		return core.Number(x)
	case bool:
		return core.String(strconv.FormatBool(x))
	case time.Time:
		return core.String(x.Format(time.DateOnly))
	case pgtype.Numeric:
		return numericValue(x)
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return core.Number(f)
	case fmt.Stringer:
		return core.String(x.String())
	default:
		return core.String(fmt.Sprint(x))
	}
}

func numericValue(n pgtype.Numeric) core.Value {
	if !n.Valid || n.NaN {
		return core.Null
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return core.Null
	}
	return core.Number(f.Float64)
}
