package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"dwarfhold.dev/internal/sim/tuning"
	"dwarfhold.dev/internal/sim/world"
)

const queueCapacity = 65536

// SQLiteIndex is a queryable secondary index over tick and audit entries.
// The compressed JSONL logs stay the source of truth; writes that do not fit
// in the queue are counted and dropped.
type SQLiteIndex struct {
	db *sqlx.DB

	// mu orders sends against close(ch).
	mu   sync.RWMutex
	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick  atomic.Uint64
	dropAudit atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
)

type req struct {
	kind  reqKind
	tick  world.TickLogEntry
	audit world.AuditEntry
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropTickTotal  uint64 `json:"drop_tick_total"`
	DropAuditTotal uint64 `json:"drop_audit_total"`
}

// AuditRow is one stored terrain edit.
type AuditRow struct {
	Tick   uint64 `db:"tick" json:"tick"`
	Seq    int    `db:"seq" json:"seq"`
	Actor  string `db:"actor" json:"actor"`
	Action string `db:"action" json:"action"`
	X      int    `db:"x" json:"x"`
	Y      int    `db:"y" json:"y"`
	Z      int    `db:"z" json:"z"`
	From   uint8  `db:"from_tile" json:"from"`
	To     uint8  `db:"to_tile" json:"to"`
	Reason string `db:"reason" json:"reason,omitempty"`
}

// DeathRow is one stored creature death.
type DeathRow struct {
	Tick  uint64 `db:"tick" json:"tick"`
	ID    string `db:"creature_id" json:"id"`
	Name  string `db:"name" json:"name"`
	Kind  string `db:"kind" json:"kind"`
	Cause string `db:"cause" json:"cause"`
	X     int    `db:"x" json:"x"`
	Y     int    `db:"y" json:"y"`
	Z     int    `db:"z" json:"z"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queueCapacity),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		digest TEXT NOT NULL,
		json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		tick INTEGER PRIMARY KEY,
		digest TEXT NOT NULL,
		alive INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		moves INTEGER NOT NULL,
		decisions INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deaths (
		tick INTEGER NOT NULL,
		creature_id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		cause TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		PRIMARY KEY (tick, creature_id)
	);

	CREATE TABLE IF NOT EXISTS audits (
		tick INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		from_tile INTEGER NOT NULL,
		to_tile INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (tick, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, y, z, tick);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropTickTotal:  s.dropTick.Load(),
		DropAuditTotal: s.dropAudit.Load(),
	}
}

// UpsertTuning stores the tuning actually applied, keyed by its sha256.
func (s *SQLiteIndex) UpsertTuning(t tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO meta(key,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// AuditsAt returns every recorded edit of one tile, oldest first.
func (s *SQLiteIndex) AuditsAt(ctx context.Context, x, y, z int) ([]AuditRow, error) {
	var rows []AuditRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT tick,seq,actor,action,x,y,z,from_tile,to_tile,reason FROM audits WHERE x=? AND y=? AND z=? ORDER BY tick,seq`,
		x, y, z)
	return rows, err
}

// Deaths returns recorded deaths, oldest first, at most limit rows.
func (s *SQLiteIndex) Deaths(ctx context.Context, limit int) ([]DeathRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []DeathRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT tick,creature_id,name,kind,cause,x,y,z FROM deaths ORDER BY tick,creature_id LIMIT ?`, limit)
	return rows, err
}

// LastTick returns the highest indexed tick, or 0 when none is stored.
func (s *SQLiteIndex) LastTick(ctx context.Context) (uint64, error) {
	var tick int64
	err := s.db.GetContext(ctx, &tick, `SELECT COALESCE(MAX(tick),0) FROM ticks`)
	return uint64(tick), err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sqlx.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO ticks(tick,digest,alive,dead,moves,decisions) VALUES(?,?,?,?,?,?)`,
				int64(t.Tick), t.Digest, t.Alive, t.Dead, t.Moves, t.Decisions,
			); err != nil {
				rollback()
				continue
			}
			opCount++
			for _, d := range t.Deaths {
				if _, err := tx.Exec(
					`INSERT OR REPLACE INTO deaths(tick,creature_id,name,kind,cause,x,y,z) VALUES(?,?,?,?,?,?,?,?)`,
					int64(t.Tick), d.ID, d.Name, d.Kind, d.Cause, d.Pos[0], d.Pos[1], d.Pos[2],
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO audits(tick,seq,actor,action,x,y,z,from_tile,to_tile,reason) VALUES(?,?,?,?,?,?,?,?,?,?)`,
				int64(a.Tick), seq, a.Actor, a.Action, a.Pos[0], a.Pos[1], a.Pos[2], int64(a.From), int64(a.To), a.Reason,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		// The single connection is shared with readers; release it once the
		// queue drains.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
