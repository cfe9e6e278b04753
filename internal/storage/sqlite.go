package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// querier is satisfied by both *sql.DB and *sql.Tx so every query is
// written once and runs inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapBusy(err))
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// mapBusy converts SQLite lock contention into the retryable storage-busy
// error so callers can back off instead of treating it as fatal.
func mapBusy(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", common.ErrStorageBusy, err)
		}
	}
	return err
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return mapBusy(t.tx.Commit())
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Storage methods delegate to the shared implementations with the
// transaction as the querier.
func (t *sqliteTransaction) CreateCompany(ctx context.Context, company *model.Company) (int64, error) {
	return t.storage.createCompany(ctx, t.tx, company)
}

func (t *sqliteTransaction) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	return t.storage.getCompany(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetCompanyByNormalizedName(ctx context.Context, name string) (*model.Company, error) {
	return t.storage.getCompanyByNormalizedName(ctx, t.tx, name)
}

func (t *sqliteTransaction) UpdateCompany(ctx context.Context, company *model.Company) error {
	return t.storage.updateCompany(ctx, t.tx, company)
}

func (t *sqliteTransaction) CreateProspect(ctx context.Context, prospect *model.Prospect) (int64, error) {
	return t.storage.createProspect(ctx, t.tx, prospect)
}

func (t *sqliteTransaction) GetProspect(ctx context.Context, id int64) (*model.Prospect, error) {
	return t.storage.getProspect(ctx, t.tx, id)
}

func (t *sqliteTransaction) UpdateProspect(ctx context.Context, prospect *model.Prospect) error {
	return t.storage.updateProspect(ctx, t.tx, prospect)
}

func (t *sqliteTransaction) GetProspects(ctx context.Context, filter service.ProspectFilter) ([]model.Prospect, error) {
	return t.storage.getProspects(ctx, t.tx, filter)
}

func (t *sqliteTransaction) FindProspectByEmail(ctx context.Context, email string) (int64, error) {
	return t.storage.findProspectByEmail(ctx, t.tx, email)
}

func (t *sqliteTransaction) FindProspectByPhone(ctx context.Context, phone string) (int64, error) {
	return t.storage.findProspectByPhone(ctx, t.tx, phone)
}

func (t *sqliteTransaction) GetOverdueProspects(ctx context.Context, asOf time.Time) ([]model.Prospect, error) {
	return t.storage.getOverdueProspects(ctx, t.tx, asOf)
}

func (t *sqliteTransaction) GetOrphanedEngaged(ctx context.Context) ([]model.Prospect, error) {
	return t.storage.getOrphanedEngaged(ctx, t.tx)
}

func (t *sqliteTransaction) GetProspectsDue(ctx context.Context, population model.Population, asOf time.Time) ([]model.Prospect, error) {
	return t.storage.getProspectsDue(ctx, t.tx, population, asOf)
}

func (t *sqliteTransaction) CreateContactMethod(ctx context.Context, method *model.ContactMethod) (int64, error) {
	return t.storage.createContactMethod(ctx, t.tx, method)
}

func (t *sqliteTransaction) GetContactMethods(ctx context.Context, prospectID int64) ([]model.ContactMethod, error) {
	return t.storage.getContactMethods(ctx, t.tx, prospectID)
}

func (t *sqliteTransaction) IsDNC(ctx context.Context, email, phone string) (bool, error) {
	return t.storage.isDNC(ctx, t.tx, email, phone)
}

func (t *sqliteTransaction) CreateActivity(ctx context.Context, activity *model.Activity) (int64, error) {
	return t.storage.createActivity(ctx, t.tx, activity)
}

func (t *sqliteTransaction) GetActivities(ctx context.Context, prospectID int64) ([]model.Activity, error) {
	return t.storage.getActivities(ctx, t.tx, prospectID)
}

func (t *sqliteTransaction) CreateImportSource(ctx context.Context, source *model.ImportSource) (int64, error) {
	return t.storage.createImportSource(ctx, t.tx, source)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
