package repotest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
)

// txidQuery is the only statement the driver understands. Repositories use
// it to find the store transaction a *sql.Tx belongs to.
const txidQuery = "SELECT txid_current()"

var errNoStatements = errors.New("repotest: prepared statements are not supported")

// DB returns a database whose transactions are transactions of s. Writes
// made through repositories bound to a *sql.Tx from it are undone when the
// transaction rolls back, and rows locked by GetForUpdate stay locked until
// it ends.
func (s *Store) DB() *sql.DB {
	return sql.OpenDB(connector{s: s})
}

type connector struct {
	s *Store
}

func (c connector) Connect(context.Context) (driver.Conn, error) {
	return &conn{s: c.s}, nil
}

func (c connector) Driver() driver.Driver {
	return storeDriver{s: c.s}
}

type storeDriver struct {
	s *Store
}

func (d storeDriver) Open(string) (driver.Conn, error) {
	return &conn{s: d.s}, nil
}

// conn is used by one goroutine at a time; database/sql guarantees that.
type conn struct {
	s  *Store
	tx int64
}

func (c *conn) Prepare(string) (driver.Stmt, error) {
	return nil, errNoStatements
}

func (c *conn) Close() error {
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.tx != 0 {
		return nil, errors.New("repotest: transaction already open")
	}
	c.tx = c.s.beginTx()
	return &storeTx{c: c}, nil
}

func (c *conn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if query != txidQuery {
		return nil, fmt.Errorf("repotest: unsupported query %q", query)
	}
	return &txidRows{id: c.tx}, nil
}

type storeTx struct {
	c *conn
}

func (t *storeTx) Commit() error {
	return t.end(true)
}

func (t *storeTx) Rollback() error {
	return t.end(false)
}

func (t *storeTx) end(commit bool) error {
	id := t.c.tx
	t.c.tx = 0
	t.c.s.endTx(id, commit)
	return nil
}

type txidRows struct {
	id   int64
	done bool
}

func (r *txidRows) Columns() []string {
	return []string{"txid_current"}
}

func (r *txidRows) Close() error {
	return nil
}

func (r *txidRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.id
	return nil
}
