// Package presets archives named layouts in a SQLite database.
//
// Each preset stores its record list as a CBOR document compressed with
// zstd, so children and their relative offsets survive a round trip
// unchanged.
package presets

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/housing.layout/internal/db"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/timeutil"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	// ErrNotFound is returned when no preset matches a name or id.
	ErrNotFound = errors.New("preset not found")
	// ErrEmptyName is returned when saving without a name.
	ErrEmptyName = errors.New("preset name is empty")
)

// Summary describes a stored preset without its records.
type Summary struct {
	ID        uuid.UUID
	Name      string
	Location  uint32
	HouseSize string
	Count     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preset is a stored layout.
type Preset struct {
	Summary
	Records []*placement.Record
}

// Store is a preset database.
type Store struct {
	*db.DB
	clock timeutil.Clock
}

// Open opens (or creates) the preset database at path and applies any
// pending migrations. A nil clock uses the wall clock.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(migrations, "migrations"); err != nil {
		d.Close()
		return nil, fmt.Errorf("preset schema: %w", err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{DB: d, clock: clock}, nil
}

// Save stores records under name. Saving over an existing name keeps its
// id and creation time.
func (s *Store) Save(name string, location uint32, houseSize string, records []*placement.Record) (Summary, error) {
	if name == "" {
		return Summary{}, ErrEmptyName
	}
	layout, rawSize, err := encodeLayout(records)
	if err != nil {
		return Summary{}, fmt.Errorf("encoding preset %q: %w", name, err)
	}

	now := s.clock.Now().UTC()
	sum := Summary{
		ID:        uuid.New(),
		Name:      name,
		Location:  location,
		HouseSize: houseSize,
		Count:     len(records),
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.Begin()
	if err != nil {
		return Summary{}, err
	}
	defer tx.Rollback()

	var existingID string
	var created int64
	err = tx.QueryRow(`SELECT preset_id, created_at FROM presets WHERE name = ?`, name).Scan(&existingID, &created)
	switch {
	case err == nil:
		if sum.ID, err = uuid.Parse(existingID); err != nil {
			return Summary{}, fmt.Errorf("preset %q has invalid id %q: %w", name, existingID, err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		_, err = tx.Exec(`UPDATE presets
			SET location = ?, house_size = ?, record_count = ?, raw_size = ?, layout = ?, updated_at = ?
			WHERE preset_id = ?`,
			location, houseSize, sum.Count, rawSize, layout, now.UnixNano(), existingID)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec(`INSERT INTO presets
			(preset_id, name, location, house_size, record_count, raw_size, layout, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.ID.String(), name, location, houseSize, sum.Count, rawSize, layout, now.UnixNano(), now.UnixNano())
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to save preset %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, err
	}
	diagf("saved preset %q (%s): %d records, %d bytes", name, sum.ID, sum.Count, len(layout))
	return sum, nil
}

// Load returns the preset whose id or name is key.
func (s *Store) Load(key string) (*Preset, error) {
	var (
		p       Preset
		id      string
		rawSize int
		layout  []byte
		created int64
		updated int64
	)
	err := s.QueryRow(`SELECT preset_id, name, location, house_size, record_count, raw_size, layout, created_at, updated_at
		FROM presets WHERE preset_id = ? OR name = ?
		ORDER BY preset_id = ? DESC LIMIT 1`, key, key, key).
		Scan(&id, &p.Name, &p.Location, &p.HouseSize, &p.Count, &rawSize, &layout, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preset %q: %w", key, err)
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("preset %q has invalid id %q: %w", p.Name, id, err)
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()

	if p.Records, err = decodeLayout(layout, rawSize); err != nil {
		return nil, fmt.Errorf("decoding preset %q: %w", p.Name, err)
	}
	diagf("loaded preset %q: %d records", p.Name, len(p.Records))
	return &p, nil
}

// List returns every preset ordered by name.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.Query(`SELECT preset_id, name, location, house_size, record_count, created_at, updated_at
		FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum              Summary
			id               string
			created, updated int64
		)
		if err := rows.Scan(&id, &sum.Name, &sum.Location, &sum.HouseSize, &sum.Count, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("preset %q has invalid id %q: %w", sum.Name, id, err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		sum.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the preset whose id or name is key.
func (s *Store) Delete(key string) error {
	res, err := s.Exec(`DELETE FROM presets WHERE preset_id = ? OR name = ?`, key, key)
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	opsf("deleted preset %q", key)
	return nil
}
