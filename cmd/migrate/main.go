package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/joho/godotenv"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/budget-insights/internal/logger"
)

// Migration is a single numbered SQL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// target names the dataset migrations are applied to.
type target struct {
	ProjectID string
	DatasetID string
}

func (t target) table(name string) string {
	return "`" + t.ProjectID + "." + t.DatasetID + "." + name + "`"
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

var (
	projectID     = flag.String("project", "", "GCP project ID (defaults to BQ_PROJECT_ID)")
	datasetID     = flag.String("dataset", "", "BigQuery dataset ID (defaults to BQ_DATASET or budget)")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
	dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	tgt := target{
		ProjectID: firstNonEmpty(*projectID, os.Getenv("BQ_PROJECT_ID")),
		DatasetID: firstNonEmpty(*datasetID, os.Getenv("BQ_DATASET"), "budget"),
	}
	if tgt.ProjectID == "" {
		log.Fatal().Msg("-project flag or BQ_PROJECT_ID is required")
	}

	client, err := bigquery.NewClient(ctx, tgt.ProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", tgt.ProjectID).Str("dataset", tgt.DatasetID).Msg("Connected to BigQuery")

	if err := ensureSchemaMigrationsTable(ctx, client, tgt); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	dir, err := resolveDir(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to locate migrations")
	}

	migrations, err := readMigrations(dir, tgt)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := getAppliedMigrations(ctx, client, tgt)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found applied migrations")

	for _, d := range checksumDrift(migrations, applied) {
		log.Warn().Int("version", d.Version).Str("name", d.Name).Msg("Applied migration has changed on disk")
	}

	pending := pendingMigrations(migrations, applied)
	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}

	for _, m := range pending {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		if *dryRun {
			mlog.Info().Msg("Pending")
			continue
		}

		mlog.Info().Msg("Applying")
		if err := executeSQL(ctx, client, m.SQL, nil); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to execute migration")
		}
		if err := recordMigration(ctx, client, tgt, m, *appliedBy); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to record migration")
		}
		mlog.Info().Msg("Applied")
	}

	if !*dryRun {
		log.Info().Int("count", len(pending)).Msg("Successfully applied migrations")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveDir finds the migrations directory from the repo root or from cmd/migrate.
func resolveDir(dir string) (string, error) {
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}
	alt := filepath.Join("..", "..", dir)
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("migrations directory not found: %s", dir)
}

// parseFilename extracts the version and name from a migration filename.
func parseFilename(filename string) (int, string, bool) {
	matches := migrationPattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// renderSQL substitutes the dataset placeholders.
func renderSQL(content string, tgt target) string {
	sql := strings.ReplaceAll(content, "{{PROJECT_ID}}", tgt.ProjectID)
	return strings.ReplaceAll(sql, "{{DATASET_ID}}", tgt.DatasetID)
}

// checksum is computed over the file before placeholder substitution, so the
// same migration has the same checksum in every dataset.
func checksum(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// readMigrations loads every migration in dir, sorted by version.
func readMigrations(dir string, tgt target) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readMigrations: reading directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		version, name, ok := parseFilename(file.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("readMigrations: version %04d used by %s and %s", version, prev, file.Name())
		}
		seen[version] = file.Name()

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("readMigrations: reading %s: %w", file.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: file.Name(),
			SQL:      renderSQL(string(content), tgt),
			Checksum: checksum(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pendingMigrations returns migrations whose version has not been applied.
func pendingMigrations(all []Migration, applied []AppliedMigration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}

	var pending []Migration
	for _, m := range all {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// checksumDrift returns applied migrations whose file content has changed since.
func checksumDrift(all []Migration, applied []AppliedMigration) []AppliedMigration {
	byVersion := make(map[int]Migration, len(all))
	for _, m := range all {
		byVersion[m.Version] = m
	}

	var drift []AppliedMigration
	for _, am := range applied {
		m, ok := byVersion[am.Version]
		if ok && am.Checksum != "" && am.Checksum != m.Checksum {
			drift = append(drift, am)
		}
	}
	return drift
}

func ensureSchemaMigrationsTable(ctx context.Context, client *bigquery.Client, tgt target) error {
	sql := `
		CREATE TABLE IF NOT EXISTS ` + tgt.table("schema_migrations") + ` (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`
	if err := executeSQL(ctx, client, sql, nil); err != nil {
		return fmt.Errorf("ensureSchemaMigrationsTable: %w", err)
	}
	return nil
}

func getAppliedMigrations(ctx context.Context, client *bigquery.Client, tgt target) ([]AppliedMigration, error) {
	query := client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + tgt.table("schema_migrations") + `
		ORDER BY version ASC
	`)
	it, err := query.Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("getAppliedMigrations: read: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("getAppliedMigrations: iter next: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

func executeSQL(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	query := client.Query(sql)
	query.Parameters = params

	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func recordMigration(ctx context.Context, client *bigquery.Client, tgt target, m Migration, by string) error {
	sql := `
		INSERT INTO ` + tgt.table("schema_migrations") + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`
	params := []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: by},
	}
	if err := executeSQL(ctx, client, sql, params); err != nil {
		return fmt.Errorf("recordMigration: %w", err)
	}
	return nil
}
