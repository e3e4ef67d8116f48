package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Summary aggregates every episode found under a directory.
type Summary struct {
	Files      int              `json:"files"`
	Episodes   int64            `json:"episodes"`
	Turns      int64            `json:"turns"`
	Finished   int64            `json:"finished"`
	MaxLength  int64            `json:"max_length"`
	MeanLength float64          `json:"mean_length"`
	MeanReward float64          `json:"mean_reward"`
	Causes     map[string]int64 `json:"causes"`
}

// Summarize runs DuckDB over the parquet files in dir. Episodes cut short by a
// turn limit count toward Episodes but not Finished or Causes.
func Summarize(ctx context.Context, dir string) (Summary, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, fmt.Errorf("%s: %w", dir, ErrNoRows)
	}

	db, err := openTurns(ctx, files)
	if err != nil {
		return Summary{}, err
	}
	defer db.Close()

	s := Summary{Files: len(files), Causes: map[string]int64{}}

	const totals = `WITH finals AS (
		SELECT
			episode_id,
			arg_max(length, turn) AS length,
			bool_or(done) AS done,
			sum(reward) AS reward
		FROM turns
		GROUP BY episode_id
	)
	SELECT
		count(*),
		(SELECT count(*) FROM turns),
		count(*) FILTER (WHERE done),
		coalesce(max(length), 0),
		coalesce(avg(length), 0),
		coalesce(avg(reward), 0)
	FROM finals`
	if err := db.QueryRowContext(ctx, totals).Scan(
		&s.Episodes, &s.Turns, &s.Finished, &s.MaxLength, &s.MeanLength, &s.MeanReward,
	); err != nil {
		return Summary{}, fmt.Errorf("query totals: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT cause, count(*) FROM turns WHERE done GROUP BY cause ORDER BY cause`)
	if err != nil {
		return Summary{}, fmt.Errorf("query causes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cause string
		var n int64
		if err := rows.Scan(&cause, &n); err != nil {
			return Summary{}, fmt.Errorf("scan cause: %w", err)
		}
		s.Causes[cause] = n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("query causes: %w", err)
	}
	return s, nil
}

// openTurns opens an in-memory DuckDB with a "turns" view over files.
func openTurns(ctx context.Context, files []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + escapeSQLString(f) + "'"
	}
	view := `CREATE OR REPLACE VIEW turns AS
		SELECT * FROM read_parquet([` + strings.Join(quoted, ",") + `], union_by_name=true)`
	if _, err := db.ExecContext(ctx, view); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create turns view: %w", err)
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
