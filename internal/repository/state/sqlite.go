package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver.
)

// SQLiteRepository persists the alarm record as rows of a key-value settings
// table. Configuration keys hold plain values; the armed alarm is stored as a
// protobuf JSON document under a single key.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database and initializes the schema.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	r := &SQLiteRepository{db: db}
	if err = r.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	_, err := r.db.ExecContext(ctx, schema)

	return err
}

// Load reads every settings row and assembles the record.
func (r *SQLiteRepository) Load(ctx context.Context) (*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	defer func() { _ = rows.Close() }()

	values := make(map[string]string)

	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}

		values[key] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrNotFound
	}

	return recordFromRows(values)
}

// Save replaces the stored record in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, record *domain.Record) error {
	rows, err := recordToRows(record)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}

	for key, value := range rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("write setting %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// recordToRows flattens the record into settings rows.
func recordToRows(record *domain.Record) (map[string]string, error) {
	rows := make(map[string]string)

	if cfg := record.Config; cfg != nil {
		days, err := json.Marshal(cfg.Weekdays.Ordinals())
		if err != nil {
			return nil, fmt.Errorf("encode selected days: %w", err)
		}

		rows[keyHour] = strconv.Itoa(cfg.Time.Hour)
		rows[keyMinute] = strconv.Itoa(cfg.Time.Minute)
		rows[keySelectedDays] = string(days)
		rows[keyMusicURI] = cfg.SoundRef
	}

	if record.Armed != nil {
		doc, err := structpb.NewStruct(armedFields(record.Armed))
		if err != nil {
			return nil, fmt.Errorf("build armed document: %w", err)
		}

		data, err := protojson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode armed alarm: %w", err)
		}

		rows[keyArmed] = string(data)
	}

	if !record.LastFiredAt.IsZero() {
		rows[keyLastFiredAt] = formatTime(record.LastFiredAt)
	}

	return rows, nil
}

// recordFromRows rebuilds the record from settings rows.
func recordFromRows(rows map[string]string) (*domain.Record, error) {
	record := new(domain.Record)

	if _, ok := rows[keyHour]; ok {
		cfg, err := configFromRows(rows)
		if err != nil {
			return nil, err
		}

		record.Config = cfg
	}

	if data, ok := rows[keyArmed]; ok {
		var doc structpb.Struct
		if err := protojson.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decode armed alarm: %w", err)
		}

		armed, err := armedFromFields(doc.GetFields())
		if err != nil {
			return nil, err
		}

		record.Armed = armed
	}

	lastFiredAt, err := parseTime(rows[keyLastFiredAt])
	if err != nil {
		return nil, err
	}

	record.LastFiredAt = lastFiredAt

	return record, nil
}

func configFromRows(rows map[string]string) (*domain.Config, error) {
	hour, err := strconv.Atoi(rows[keyHour])
	if err != nil {
		return nil, fmt.Errorf("%w: hour: %w", errMalformedRecord, err)
	}

	minute, err := strconv.Atoi(rows[keyMinute])
	if err != nil {
		return nil, fmt.Errorf("%w: minute: %w", errMalformedRecord, err)
	}

	var ordinals []int

	if data := rows[keySelectedDays]; data != "" {
		if err = json.Unmarshal([]byte(data), &ordinals); err != nil {
			return nil, fmt.Errorf("%w: selected days: %w", errMalformedRecord, err)
		}
	}

	days, err := domain.WeekdaySetFromOrdinals(ordinals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedRecord, err)
	}

	cfg := &domain.Config{
		Time:     domain.TimeOfDay{Hour: hour, Minute: minute},
		Weekdays: days,
		SoundRef: rows[keyMusicURI],
	}

	if err = cfg.Validate(); err != nil {
		return nil, errors.Join(errMalformedRecord, err)
	}

	return cfg, nil
}
