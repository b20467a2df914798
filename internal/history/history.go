package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Play is one listening session: opened on tune-in, finalized on stop.
type Play struct {
	ID          int64  `db:"id"`
	StationID   string `db:"station_id"`
	StationName string `db:"station_name"`
	StartedAt   int64  `db:"started_at"` // unix seconds
	Seconds     int64  `db:"seconds"`
	Titles      int64  `db:"titles"` // distinct track titles seen
}

// Started returns the start time.
func (p Play) Started() time.Time {
	return time.Unix(p.StartedAt, 0)
}

// Store is the sqlite-backed listening log.
type Store struct {
	db *sqlx.DB
}

const schema = `
create table if not exists plays (
	id integer primary key autoincrement,
	station_id text not null,
	station_name text not null,
	started_at integer not null,
	seconds integer not null default 0,
	titles integer not null default 0
);
create index if not exists plays_station on plays(station_id, started_at);
`

// DefaultPath returns the history database location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "clira", "history.db"), nil
}

// Open opens (creating if needed) the listening log at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a listening session and returns its ID.
func (s *Store) Begin(stationID, stationName string, at time.Time) (int64, error) {
	res, err := s.db.Exec(
		`insert into plays (station_id, station_name, started_at) values (?, ?, ?)`,
		stationID, stationName, at.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("recording play: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading play id: %w", err)
	}
	return id, nil
}

// Finish finalizes a session with its duration and title count.
func (s *Store) Finish(id int64, listened time.Duration, titles int) error {
	secs := int64(listened.Seconds())
	if secs < 0 {
		secs = 0
	}
	_, err := s.db.Exec(
		`update plays set seconds = ?, titles = ? where id = ?`,
		secs, titles, id,
	)
	if err != nil {
		return fmt.Errorf("finalizing play %d: %w", id, err)
	}
	return nil
}

// Recent returns the latest play per station, newest first, at most n rows.
func (s *Store) Recent(n int) ([]Play, error) {
	plays := make([]Play, 0, n)
	err := s.db.Select(&plays, `
		select p.id, p.station_id, p.station_name, p.started_at, p.seconds, p.titles
		from plays p
		join (
			select station_id, max(started_at) as latest
			from plays group by station_id
		) m on p.station_id = m.station_id and p.started_at = m.latest
		order by p.started_at desc
		limit ?`, n)
	if err != nil {
		return nil, fmt.Errorf("loading recent plays: %w", err)
	}
	return plays, nil
}

// TotalSeconds sums listening time for sessions started at or after since.
func (s *Store) TotalSeconds(since time.Time) (int64, error) {
	var total int64
	err := s.db.Get(&total,
		`select coalesce(sum(seconds), 0) from plays where started_at >= ?`,
		since.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("summing listening time: %w", err)
	}
	return total, nil
}

// StationCount counts distinct stations played since the given time.
func (s *Store) StationCount(since time.Time) (int64, error) {
	var count int64
	err := s.db.Get(&count,
		`select count(distinct station_id) from plays where started_at >= ?`,
		since.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("counting stations: %w", err)
	}
	return count, nil
}
