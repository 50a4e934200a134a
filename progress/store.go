package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists learner activity events.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the progress database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ref TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			xp INTEGER NOT NULL DEFAULT 0,
			day TEXT NOT NULL,
			at TEXT NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_events_once ON events(user_id, kind, ref);
		CREATE INDEX IF NOT EXISTS idx_events_user_day ON events(user_id, day);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	ctx := context.Background()
	var verStr string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'schema_version'`).Scan(&verStr)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}

	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version < currentSchemaVersion {
		version = currentSchemaVersion
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(version))
	return err
}

// Record stores an event. Completing the same item twice is a no-op and
// reports false, so XP is only granted once.
func (s *Store) Record(ctx context.Context, e Event) (bool, error) {
	if e.UserID == "" || e.Ref == "" {
		return false, errors.New("progress: event needs a user and a ref")
	}
	switch e.Kind {
	case KindLesson, KindChallenge, KindProject:
	default:
		return false, fmt.Errorf("progress: unknown kind %q", e.Kind)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, user_id, kind, ref, topic, xp, day, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.Kind), e.Ref, e.Topic, e.XP, dayKey(e.At), e.At.UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	return n == 1, nil
}

// Completed returns the refs of every item of kind the user finished.
func (s *Store) Completed(ctx context.Context, userID string, kind Kind) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref FROM events WHERE user_id = ? AND kind = ?`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("completed %s: %w", kind, err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("completed %s: %w", kind, err)
		}
		done[ref] = true
	}
	return done, rows.Err()
}

// Summary aggregates the user's activity as of now. The aggregate queries
// run in parallel; the first failure cancels the rest.
func (s *Store) Summary(ctx context.Context, userID string, now time.Time) (Dashboard, error) {
	d := Dashboard{
		Week:      emptyWeek(now),
		Skills:    []Share{},
		Recent:    []Event{},
		Completed: map[Kind]map[string]bool{},
	}

	var (
		days      []time.Time
		topics    map[string]int
		completed = map[Kind]map[string]bool{}
		kinds     = []Kind{KindLesson, KindChallenge, KindProject}
	)
	sets := make([]map[string]bool, len(kinds))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT kind, COUNT(*), COALESCE(SUM(xp), 0) FROM events WHERE user_id = ? GROUP BY kind`, userID)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var kind string
			var count, xp int
			if err := rows.Scan(&kind, &count, &xp); err != nil {
				return fmt.Errorf("totals: %w", err)
			}
			d.TotalXP += xp
			switch Kind(kind) {
			case KindLesson:
				d.LessonsCompleted = count
			case KindChallenge:
				d.ChallengesSolved = count
			case KindProject:
				d.ProjectsBuilt = count
			}
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT day FROM events WHERE user_id = ? ORDER BY day DESC`, userID)
		if err != nil {
			return fmt.Errorf("active days: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var day string
			if err := rows.Scan(&day); err != nil {
				return fmt.Errorf("active days: %w", err)
			}
			t, err := time.Parse("2006-01-02", day)
			if err != nil {
				return fmt.Errorf("active days: parse %q: %w", day, err)
			}
			days = append(days, t)
		}
		return rows.Err()
	})

	from := dayKey(d.Week[0].Day)
	g.Go(func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT day, kind, COUNT(*) FROM events WHERE user_id = ? AND day >= ? GROUP BY day, kind`,
			userID, from)
		if err != nil {
			return fmt.Errorf("week: %w", err)
		}
		defer rows.Close()
		index := make(map[string]int, len(d.Week))
		for i, w := range d.Week {
			index[dayKey(w.Day)] = i
		}
		for rows.Next() {
			var day, kind string
			var count int
			if err := rows.Scan(&day, &kind, &count); err != nil {
				return fmt.Errorf("week: %w", err)
			}
			i, ok := index[day]
			if !ok {
				continue
			}
			switch Kind(kind) {
			case KindLesson:
				d.Week[i].Lessons = count
			case KindChallenge:
				d.Week[i].Challenges = count
			case KindProject:
				d.Week[i].Projects = count
			}
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT topic, COUNT(*) FROM events WHERE user_id = ? AND topic != '' GROUP BY topic`, userID)
		if err != nil {
			return fmt.Errorf("skills: %w", err)
		}
		defer rows.Close()
		topics = map[string]int{}
		for rows.Next() {
			var topic string
			var count int
			if err := rows.Scan(&topic, &count); err != nil {
				return fmt.Errorf("skills: %w", err)
			}
			topics[topic] = count
		}
		return rows.Err()
	})

	g.Go(func() error {
		recent, err := s.recent(ctx, userID, 5)
		if err != nil {
			return err
		}
		d.Recent = recent
		return nil
	})

	for i, kind := range kinds {
		g.Go(func() error {
			set, err := s.Completed(ctx, userID, kind)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	for i, kind := range kinds {
		completed[kind] = sets[i]
	}
	d.Completed = completed
	d.Streak = Streak(days, now)
	d.Skills = shares(topics)
	return d, nil
}

func (s *Store) recent(ctx context.Context, userID string, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, ref, topic, xp, at FROM events WHERE user_id = ? ORDER BY at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var kind, at string
		if err := rows.Scan(&e.ID, &kind, &e.Ref, &e.Topic, &e.XP, &at); err != nil {
			return nil, fmt.Errorf("recent: %w", err)
		}
		e.Kind = Kind(kind)
		e.UserID = userID
		e.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("recent: parse %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// emptyWeek returns seven zeroed days ending on now's UTC day.
func emptyWeek(now time.Time) []DayActivity {
	today := now.UTC().Truncate(24 * time.Hour)
	week := make([]DayActivity, 7)
	for i := range week {
		week[i].Day = today.AddDate(0, 0, i-6)
	}
	return week
}
