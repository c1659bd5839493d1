package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"parkinglot/internal/db"
	"parkinglot/internal/db/dbtest"
	"parkinglot/internal/events"
	"parkinglot/internal/repository"
)

var t0 = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type publishedEvent struct {
	Type    events.EventType
	Payload events.Payload
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(t events.EventType, payload events.Payload) {
	p.mu.Lock()
	p.events = append(p.events, publishedEvent{Type: t, Payload: payload})
	p.mu.Unlock()
}

func (p *recordingPublisher) ofType(t events.EventType) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store   *repository.Store
	parking *db.Parking
	space   *db.ParkingSpace
}

// newTestEnv opens a database holding one parking at hourlyPrice with a
// single space "A1".
func newTestEnv(t *testing.T, hourlyPrice int64) testEnv {
	t.Helper()
	return newTestEnvOn(t, dbtest.Open(t), hourlyPrice)
}

func newTestEnvOn(t *testing.T, gdb *gorm.DB, hourlyPrice int64) testEnv {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(gdb)

	parking := &db.Parking{ID: uuid.NewString(), Name: "Centro", HourlyPriceCents: hourlyPrice, NumSpaces: 10, Category: db.CategoryStandard}
	require.NoError(t, store.Parkings.CreateParking(ctx, parking))
	space := &db.ParkingSpace{ID: uuid.NewString(), Code: "A1", ParkingID: parking.ID}
	require.NoError(t, store.Parkings.CreateSpace(ctx, space))

	return testEnv{store: store, parking: parking, space: space}
}

func (e testEnv) addSpace(t *testing.T, code string) *db.ParkingSpace {
	t.Helper()
	space := &db.ParkingSpace{ID: uuid.NewString(), Code: code, ParkingID: e.parking.ID}
	require.NoError(t, e.store.Parkings.CreateSpace(context.Background(), space))
	return space
}

var nop = zerolog.Nop()

// statement is one query or insert observed through gorm callbacks. Tx is the
// transaction it ran in, nil outside one.
type statement struct {
	Kind   string
	Table  string
	Locked bool
	Tx     gorm.ConnPool
}

type statementLog struct {
	mu    sync.Mutex
	stmts []statement
}

// recordStatements logs every query and insert issued through gdb.
func recordStatements(t *testing.T, gdb *gorm.DB) *statementLog {
	t.Helper()
	log := &statementLog{}
	record := func(kind string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			st := statement{Kind: kind, Table: tx.Statement.Table}
			_, st.Locked = tx.Statement.Clauses["FOR"]
			if _, ok := tx.Statement.ConnPool.(gorm.TxCommitter); ok {
				st.Tx = tx.Statement.ConnPool
			}
			log.mu.Lock()
			log.stmts = append(log.stmts, st)
			log.mu.Unlock()
		}
	}
	require.NoError(t, gdb.Callback().Query().After("gorm:query").Register("test:record_query", record("query")))
	require.NoError(t, gdb.Callback().Create().After("gorm:create").Register("test:record_create", record("create")))
	return log
}

func (l *statementLog) reset() {
	l.mu.Lock()
	l.stmts = nil
	l.mu.Unlock()
}

// index returns the position of the first statement matching kind and table,
// or -1.
func (l *statementLog) index(kind, table string) (int, statement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, st := range l.stmts {
		if st.Kind == kind && st.Table == table {
			return i, st
		}
	}
	return -1, statement{}
}
