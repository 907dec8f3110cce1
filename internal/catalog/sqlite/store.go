// Package sqlite persists the furniture and stain catalog in a SQLite
// database so the CLI can run without the host's data sheets.
package sqlite

import (
	"embed"
	"fmt"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a catalog database.
type Store struct {
	*db.DB
}

// Open opens (or creates) the catalog database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	s := &Store{d}
	if err := s.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp applies the embedded catalog schema.
func (s *Store) MigrateUp() error {
	if err := s.DB.MigrateUp(migrations, "migrations"); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}

// Replace overwrites the stored catalog with the rows of m, preserving
// their order.
func (s *Store) Replace(m *catalog.Memory) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM furniture; DELETE FROM stains;`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	for i, f := range m.FurnitureRows() {
		if _, err := tx.Exec(
			`INSERT INTO furniture (row_order, furniture_key, model_key, item_id, name, custom_talk)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			i, f.Key, f.ModelKey, f.ItemID, f.Name, f.CustomTalk,
		); err != nil {
			return fmt.Errorf("failed to insert furniture %d: %w", f.Key, err)
		}
	}
	for i, st := range m.Stains() {
		if _, err := tx.Exec(
			`INSERT INTO stains (row_order, stain_id, name, color, usable) VALUES (?, ?, ?, ?, ?)`,
			i, st.ID, st.Name, st.Color, st.Usable,
		); err != nil {
			return fmt.Errorf("failed to insert stain %d: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads the whole catalog into memory. Lookups happen once per
// buffer slot, so the core always works from the in-memory copy.
func (s *Store) Load() (*catalog.Memory, error) {
	m := catalog.NewMemory(nil, nil)

	rows, err := s.Query(`SELECT furniture_key, model_key, item_id, name, custom_talk
		FROM furniture ORDER BY row_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query furniture: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f catalog.Furniture
		if err := rows.Scan(&f.Key, &f.ModelKey, &f.ItemID, &f.Name, &f.CustomTalk); err != nil {
			return nil, fmt.Errorf("failed to scan furniture: %w", err)
		}
		m.AddFurniture(f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stainRows, err := s.Query(`SELECT stain_id, name, color, usable FROM stains ORDER BY row_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stains: %w", err)
	}
	defer stainRows.Close()
	for stainRows.Next() {
		var st catalog.Stain
		if err := stainRows.Scan(&st.ID, &st.Name, &st.Color, &st.Usable); err != nil {
			return nil, fmt.Errorf("failed to scan stain: %w", err)
		}
		m.AddStain(st)
	}
	if err := stainRows.Err(); err != nil {
		return nil, err
	}

	return m, nil
}
