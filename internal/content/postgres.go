package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// LoadPostgres reads the full content set out of Postgres into a MemoryStore.
// Definitions are stored as one jsonb document per row; the load runs once at
// startup and the result is cached for the process lifetime.
func LoadPostgres(ctx context.Context, db *sql.DB) (*MemoryStore, error) {
	store := NewMemoryStore()

	if err := loadDocs(ctx, db, `SELECT def FROM champions`, func(raw []byte) error {
		var def ChampionDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return err
		}
		store.PutChampion(def)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("content: load champions: %w", err)
	}

	if err := loadDocs(ctx, db, `SELECT def FROM troops`, func(raw []byte) error {
		var def TroopDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return err
		}
		store.PutTroop(def)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("content: load troops: %w", err)
	}

	if err := loadDocs(ctx, db, `SELECT def FROM towers LIMIT 1`, func(raw []byte) error {
		var def TowerDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return err
		}
		store.SetTower(def)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("content: load tower: %w", err)
	}

	if err := loadDocs(ctx, db, `SELECT def FROM maps`, func(raw []byte) error {
		var def MapDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return err
		}
		store.PutMap(def)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("content: load maps: %w", err)
	}

	return store, nil
}

func loadDocs(ctx context.Context, db *sql.DB, query string, apply func([]byte) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := apply(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}
