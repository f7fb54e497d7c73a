package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	db, err := NewSQLite(filepath.Join(t.TempDir(), "factory.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sq := db.(*SQLiteDB)
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE TBL_LIVE_MQTT_DATA (
			MACHINE_NAME TEXT,
			MACHINE_GROUP TEXT,
			CYCLE_TIME TEXT,
			TOTAL_PRODUCTION_COUNT TEXT,
			CREATED_DATE TEXT
		)`,
		`CREATE TABLE HOURLY_RUNNING_IDLE_DOWNTIME (
			MACHINE_NAME TEXT,
			ROBOT_DOWNTIME TEXT,
			CREATED_DATE TEXT
		)`,
		`INSERT INTO TBL_LIVE_MQTT_DATA VALUES
			('MacLine2A', 'MACLINE-2', '12.5', '100', '2025-05-01 10:00:00'),
			('mac_line_2b', 'MACLINE-2', '13.1', '250', '2025-05-01 11:00:00')`,
		`INSERT INTO HOURLY_RUNNING_IDLE_DOWNTIME VALUES
			('MacLine2A', '300', '2025-05-01 10:00:00')`,
	}
	for _, stmt := range stmts {
		if err := sq.Exec(ctx, stmt); err != nil {
			t.Fatalf("fixture statement failed: %v", err)
		}
	}
	return sq
}

func TestQueryPreservesColumnOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	result, err := db.Query(context.Background(),
		`SELECT MACHINE_NAME, CYCLE_TIME FROM TBL_LIVE_MQTT_DATA ORDER BY MACHINE_NAME`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}
	row := result.Rows[0]
	if row.Columns[0] != "MACHINE_NAME" || row.Columns[1] != "CYCLE_TIME" {
		t.Errorf("Unexpected column order: %v", row.Columns)
	}
	if row.Values["MACHINE_NAME"] != "MacLine2A" {
		t.Errorf("Unexpected first row: %v", row.Values)
	}
}

func TestQueryEmptyResult(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	result, err := db.Query(context.Background(),
		`SELECT * FROM TBL_LIVE_MQTT_DATA WHERE MACHINE_NAME = 'nope'`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !result.Empty() {
		t.Errorf("Expected empty result, got %d rows", len(result.Rows))
	}
}

func TestQueryBadSQLReturnsError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if _, err := db.Query(context.Background(), `SELECT FROM WHERE`); err == nil {
		t.Fatal("Expected error for malformed SQL")
	}
}

func TestTablesExcludesInternal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Exec(context.Background(), `CREATE TABLE sys_config (k TEXT)`); err != nil {
		t.Fatalf("fixture failed: %v", err)
	}

	tables, err := db.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	for _, tbl := range tables {
		if tbl == "sys_config" {
			t.Error("Expected sys_config to be excluded")
		}
	}
	if len(tables) != 2 {
		t.Errorf("Expected 2 tables, got %v", tables)
	}
}

func TestSchemaDescription(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	schema, err := db.SchemaDescription(context.Background())
	if err != nil {
		t.Fatalf("SchemaDescription failed: %v", err)
	}

	for _, want := range []string{
		"CREATE TABLE TBL_LIVE_MQTT_DATA",
		"CREATE TABLE HOURLY_RUNNING_IDLE_DOWNTIME",
		"MACHINE_NAME TEXT",
		"ROBOT_DOWNTIME TEXT",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("Schema missing %q:\n%s", want, schema)
		}
	}
}

func TestDistinctValues(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	values, err := db.DistinctValues(context.Background(), "TBL_LIVE_MQTT_DATA", "MACHINE_GROUP")
	if err != nil {
		t.Fatalf("DistinctValues failed: %v", err)
	}
	if len(values) != 1 || values[0] != "MACLINE-2" {
		t.Errorf("Unexpected distinct values: %v", values)
	}
}
