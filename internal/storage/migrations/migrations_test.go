package migrations

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoad_Embedded(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("load postgres: %v", err)
	}
	if len(pg) < 2 {
		t.Fatalf("expected at least 2 postgres migrations, got %d", len(pg))
	}
	if !strings.Contains(pg[0].sql, "CREATE TABLE IF NOT EXISTS predictions") {
		t.Errorf("first postgres migration is %s", pg[0].name)
	}

	ch, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("load clickhouse: %v", err)
	}
	for _, m := range ch {
		if err := validateNoSemicolonInStrings(m.sql); err != nil {
			t.Errorf("%s: %v", m.name, err)
		}
	}
}

func TestLoad_OrderAndFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("SELECT 2;")},
		"m/001_a.sql":  {Data: []byte("SELECT 1;")},
		"m/003_c.sql":  {Data: []byte("   \n")},
		"m/README.txt": {Data: []byte("ignored")},
	}

	got, err := load(fsys, "m")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].name != "001_a.sql" || got[1].name != "002_b.sql" {
		t.Errorf("unexpected migrations: %+v", got)
	}
}

func TestSplitStatements(t *testing.T) {
	input := `-- header
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y UInt8)
ENGINE = Memory;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		sql     string
		wantErr bool
	}{
		{"SELECT 'a'; SELECT 'b';", false},
		{"SELECT 'it''s';", false},
		{"SELECT 'a;b';", true},
	}
	for _, tt := range tests {
		err := validateNoSemicolonInStrings(tt.sql)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.sql, err, tt.wantErr)
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/demand")
	if err != nil || db != "demand" {
		t.Errorf("got (%q, %v), want demand", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}
