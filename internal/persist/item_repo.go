package persist

import (
	"context"
)

// ItemStackRow is one durable inventory entry. Slot is -1 for unequipped
// stacks, otherwise the character.EquipSlot it occupies.
type ItemStackRow struct {
	ObjectID      int64
	CharacterUUID string
	ItemID        int32
	Count         int32
	Slot          int
}

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) LoadByCharacter(ctx context.Context, uuid string) ([]ItemStackRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT object_id, character_uuid, item_id, count, slot
		 FROM character_items WHERE character_uuid = $1 ORDER BY object_id`, uuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemStackRow
	for rows.Next() {
		var s ItemStackRow
		if err := rows.Scan(&s.ObjectID, &s.CharacterUUID, &s.ItemID, &s.Count, &s.Slot); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveInventory replaces a character's entire item-box snapshot in one
// transaction, grounded on WALRepo.WriteWAL's batch-in-a-transaction shape.
// Called by the shutdown save pass (saveAllCharacters in cmd/l1jgo).
func (r *ItemRepo) SaveInventory(ctx context.Context, uuid string, stacks []ItemStackRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM character_items WHERE character_uuid = $1`, uuid); err != nil {
		return err
	}
	for _, s := range stacks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_items (object_id, character_uuid, item_id, count, slot)
			 VALUES ($1,$2,$3,$4,$5)`,
			s.ObjectID, uuid, s.ItemID, s.Count, s.Slot,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DemonRow is one partner-demon roster entry (spec.md §4.6 ContractDemon/
// StoreDemon): Summoned is true only for the demon currently summoned
// (mirrors Character.SummonedSlot by demon UUID rather than index, since the
// roster order isn't itself durable).
type DemonRow struct {
	UUID          string
	CharacterUUID string
	DemonID       int32
	Level         int16
	Summoned      bool
}

type DemonRepo struct {
	db *DB
}

func NewDemonRepo(db *DB) *DemonRepo {
	return &DemonRepo{db: db}
}

func (r *DemonRepo) LoadByCharacter(ctx context.Context, charUUID string) ([]DemonRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT uuid, character_uuid, demon_id, level, summoned
		 FROM character_demons WHERE character_uuid = $1 ORDER BY uuid`, charUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DemonRow
	for rows.Next() {
		var d DemonRow
		if err := rows.Scan(&d.UUID, &d.CharacterUUID, &d.DemonID, &d.Level, &d.Summoned); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DemonRepo) Contract(ctx context.Context, d DemonRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO character_demons (uuid, character_uuid, demon_id, level, summoned)
		 VALUES ($1,$2,$3,$4,$5)`,
		d.UUID, d.CharacterUUID, d.DemonID, d.Level, d.Summoned,
	)
	return err
}

func (r *DemonRepo) SetSummoned(ctx context.Context, charUUID, demonUUID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE character_demons SET summoned = FALSE WHERE character_uuid = $1`, charUUID,
	); err != nil {
		return err
	}
	if demonUUID != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE character_demons SET summoned = TRUE WHERE uuid = $1`, demonUUID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
