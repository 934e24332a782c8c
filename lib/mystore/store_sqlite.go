package mystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type sqliteTransactionKey struct{}

var (
	sqliteMutex     sync.Mutex
	sqliteDatabases = map[string]*sqliteDatabase{}
)

// sqliteDatabase is shared by all kinds stored under the same dsn, so one transaction can span kinds
type sqliteDatabase struct {
	db       *sqlx.DB
	refCount int
}

type sqliteStore[T any] struct {
	db   *sqlx.DB
	kind string
}

type document struct {
	UID     string `db:"uid"`
	Payload string `db:"payload"`
}

func newSqliteStore[T any](c context.Context, dsn string) (*sqliteStore[T], func(), error) {
	db, release, err := openSqlite(c, dsn)
	if err != nil {
		return nil, nil, err
	}

	store := &sqliteStore[T]{
		db:   db,
		kind: kindOf[T](),
	}

	_, err = db.ExecContext(c, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
  uid     TEXT PRIMARY KEY,
  payload TEXT NOT NULL
)`, store.kind))
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("error creating table for %s: %s", store.kind, err)
	}

	return store, release, nil
}

func openSqlite(c context.Context, dsn string) (*sqlx.DB, func(), error) {
	sqliteMutex.Lock()
	defer sqliteMutex.Unlock()

	shared, found := sqliteDatabases[dsn]
	if !found {
		db, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening sqlite database %s: %s", dsn, err)
		}
		// sqlite allows a single writer; serializing connections also keeps ":memory:" a single database
		db.SetMaxOpenConns(1)
		err = db.PingContext(c)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("error connecting to sqlite database %s: %s", dsn, err)
		}
		shared = &sqliteDatabase{db: db}
		sqliteDatabases[dsn] = shared
	}
	shared.refCount++

	return shared.db, func() {
		sqliteMutex.Lock()
		defer sqliteMutex.Unlock()

		shared.refCount--
		if shared.refCount == 0 {
			shared.db.Close()
			delete(sqliteDatabases, dsn)
		}
	}, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.ExtContext
	GetContext(c context.Context, dest any, query string, args ...any) error
	SelectContext(c context.Context, dest any, query string, args ...any) error
}

func (s *sqliteStore[T]) queryer(c context.Context) queryer {
	if tx, ok := c.Value(sqliteTransactionKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

func (s *sqliteStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if _, ok := c.Value(sqliteTransactionKey{}).(*sqlx.Tx); ok {
		return f(c)
	}

	tx, err := s.db.BeginTxx(c, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	err = f(context.WithValue(c, sqliteTransactionKey{}, tx))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func (s *sqliteStore[T]) Put(c context.Context, uid string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling entity %s with uid %s: %s", s.kind, uid, err)
	}

	_, err = s.queryer(c).ExecContext(c,
		fmt.Sprintf(`INSERT INTO %q(uid, payload) VALUES(?, ?) ON CONFLICT(uid) DO UPDATE SET payload = excluded.payload`, s.kind),
		uid, string(payload))
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %s", s.kind, uid, err)
	}

	return nil
}

func (s *sqliteStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	doc := document{}
	err := s.queryer(c).GetContext(c, &doc, fmt.Sprintf(`SELECT uid, payload FROM %q WHERE uid = ?`, s.kind), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = json.Unmarshal([]byte(doc.Payload), &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling entity %s with uid %s: %s", s.kind, uid, err)
	}

	return value, true, nil
}

func (s *sqliteStore[T]) List(c context.Context) ([]T, error) {
	docs := []document{}
	err := s.queryer(c).SelectContext(c, &docs, fmt.Sprintf(`SELECT uid, payload FROM %q ORDER BY uid`, s.kind))
	if err != nil {
		return nil, fmt.Errorf("error fetching all entities %s: %s", s.kind, err)
	}

	result := make([]T, 0, len(docs))
	for _, doc := range docs {
		var value T
		err = json.Unmarshal([]byte(doc.Payload), &value)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling entity %s with uid %s: %s", s.kind, doc.UID, err)
		}
		result = append(result, value)
	}

	return result, nil
}

func (s *sqliteStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}
	return applyQuery(all, filters, orderByField)
}
