/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/Seednode/outlier/games/outlier"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const valuesQuery = `SELECT id, value FROM secret_values ORDER BY id`

// errValuesUnavailable marks a value source that could not be reached, as
// opposed to one that was read and turned out invalid.
var errValuesUnavailable = errors.New("value source unavailable")

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// loadValues picks the value table source: a JSON file, a PostgreSQL table,
// or the built-in defaults when neither is configured or the configured one
// cannot be reached. A source that is read but invalid is an error.
func loadValues(ctx context.Context, cfg *Config, log logrus.FieldLogger) (*outlier.ValueTable, error) {
	var (
		table  *outlier.ValueTable
		source string
		err    error
	)

	switch {
	case cfg.valuesFile != "":
		source = cfg.valuesFile
		table, err = valuesFromFile(cfg.valuesFile)
	case cfg.databaseURL != "":
		source = "database"
		table, err = valuesFromDatabase(ctx, cfg.databaseURL)
	default:
		table = outlier.DefaultValues()
		log.WithField("entries", table.Len()).Debug("START: Using built-in values")

		return table, nil
	}

	switch {
	case errors.Is(err, errValuesUnavailable):
		table = outlier.DefaultValues()
		log.WithError(err).WithField("entries", table.Len()).Errorf("START: Unable to load values from %s, using built-in values", source)

		return table, nil
	case err != nil:
		return nil, err
	}

	log.WithField("entries", table.Len()).Infof("START: Loaded values from %s", source)

	return table, nil
}

func valuesFromFile(path string) (*outlier.ValueTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening values file: %w", errValuesUnavailable, err)
	}
	defer f.Close()

	table, err := outlier.ParseValues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return table, nil
}

func valuesFromDatabase(ctx context.Context, dsn string) (*outlier.ValueTable, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", errValuesUnavailable, err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: pinging database: %w", errValuesUnavailable, err)
	}

	rows, err := conn.QueryContext(ctx, valuesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying values: %w", errValuesUnavailable, err)
	}
	defer rows.Close()

	return scanValues(rows)
}

func scanValues(rows rowScanner) (*outlier.ValueTable, error) {
	entries := make(map[int]string)
	for rows.Next() {
		var (
			id   int
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		if _, dup := entries[id]; dup {
			return nil, fmt.Errorf("duplicate value id %d", id)
		}
		entries[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading values: %w", errValuesUnavailable, err)
	}

	return outlier.NewValueTable(entries)
}
