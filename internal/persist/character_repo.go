package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is a character's durable snapshot: Active Entity state
// (position, HP/MP, stat inputs) plus the account/alignment fields the
// Character Manager doesn't itself own. Items and equipment load separately
// via ItemRepo, and demons via DemonRepo, since they're keyed by character
// UUID rather than embedded.
type CharacterRow struct {
	UUID         string
	AccountName  string
	Name         string
	Kind         int16 // entity.Kind
	Level        int16
	HP, MP       int32
	MaxHP, MaxMP int32
	X, Y, Rot    float32
	ZoneID       int32
	DynamicMapID int32
	LNC          int32
	SummonedSlot int
	CreatedAt    time.Time
	LastSavedAt  time.Time
	DeletedAt    *time.Time
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) LoadByAccount(ctx context.Context, accountName string) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT uuid, account_name, name, kind, level, hp, mp, max_hp, max_mp,
		        x, y, rot, zone_id, dynamic_map_id, lnc, summoned_slot,
		        created_at, last_saved_at, deleted_at
		 FROM characters
		 WHERE account_name = $1 AND deleted_at IS NULL
		 ORDER BY uuid`, accountName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CharacterRow
	for rows.Next() {
		var c CharacterRow
		if err := rows.Scan(
			&c.UUID, &c.AccountName, &c.Name, &c.Kind, &c.Level, &c.HP, &c.MP, &c.MaxHP, &c.MaxMP,
			&c.X, &c.Y, &c.Rot, &c.ZoneID, &c.DynamicMapID, &c.LNC, &c.SummonedSlot,
			&c.CreatedAt, &c.LastSavedAt, &c.DeletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *CharacterRepo) LoadByUUID(ctx context.Context, uuid string) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uuid, account_name, name, kind, level, hp, mp, max_hp, max_mp,
		        x, y, rot, zone_id, dynamic_map_id, lnc, summoned_slot,
		        created_at, last_saved_at, deleted_at
		 FROM characters WHERE uuid = $1`, uuid,
	).Scan(
		&c.UUID, &c.AccountName, &c.Name, &c.Kind, &c.Level, &c.HP, &c.MP, &c.MaxHP, &c.MaxMP,
		&c.X, &c.Y, &c.Rot, &c.ZoneID, &c.DynamicMapID, &c.LNC, &c.SummonedSlot,
		&c.CreatedAt, &c.LastSavedAt, &c.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CharacterRepo) Create(ctx context.Context, c CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO characters (uuid, account_name, name, kind, level, hp, mp, max_hp, max_mp,
		                          x, y, rot, zone_id, dynamic_map_id, lnc, summoned_slot)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		c.UUID, c.AccountName, c.Name, c.Kind, c.Level, c.HP, c.MP, c.MaxHP, c.MaxMP,
		c.X, c.Y, c.Rot, c.ZoneID, c.DynamicMapID, c.LNC, c.SummonedSlot,
	)
	return err
}

// SaveSnapshot persists the fields a Zone Instance tick or zone-out transfer
// changes. Called by the shutdown save pass (saveAllCharacters in cmd/l1jgo).
func (r *CharacterRepo) SaveSnapshot(ctx context.Context, c CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET level=$2, hp=$3, mp=$4, max_hp=$5, max_mp=$6,
		        x=$7, y=$8, rot=$9, zone_id=$10, dynamic_map_id=$11, lnc=$12,
		        summoned_slot=$13, last_saved_at=NOW()
		 WHERE uuid=$1`,
		c.UUID, c.Level, c.HP, c.MP, c.MaxHP, c.MaxMP,
		c.X, c.Y, c.Rot, c.ZoneID, c.DynamicMapID, c.LNC, c.SummonedSlot,
	)
	return err
}

func (r *CharacterRepo) SoftDelete(ctx context.Context, uuid string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET deleted_at = NOW() WHERE uuid = $1`, uuid)
	return err
}

// StatusEffectRow is one deactivated status effect snapshot (spec.md §4.3
// DeactivateEffects / ActivateEffects: remaining duration, not an absolute
// tick, survives the zone-out).
type StatusEffectRow struct {
	CharacterUUID string
	TypeID        int32
	Stack         int32
	Group         int32
	Rank          int32
	RemainingSecs int64
}

func (r *CharacterRepo) SaveStatusEffects(ctx context.Context, uuid string, effects []StatusEffectRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM character_status_effects WHERE character_uuid = $1`, uuid); err != nil {
		return err
	}
	for _, e := range effects {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_status_effects (character_uuid, type_id, stack, grp, rank, remaining_secs)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid, e.TypeID, e.Stack, e.Group, e.Rank, e.RemainingSecs,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *CharacterRepo) LoadStatusEffects(ctx context.Context, uuid string) ([]StatusEffectRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT character_uuid, type_id, stack, grp, rank, remaining_secs
		 FROM character_status_effects WHERE character_uuid = $1`, uuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusEffectRow
	for rows.Next() {
		var e StatusEffectRow
		if err := rows.Scan(&e.CharacterUUID, &e.TypeID, &e.Stack, &e.Group, &e.Rank, &e.RemainingSecs); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
