package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hearhere/internal/model"
)

// CatalogRepo provides access to novels and episodes. The catalog is
// read-only from the ledger's perspective; creators manage their own
// novels through the owner-checked mutation methods.
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

const novelColumns = "id, creator_id, title, author, description, language, created_at, updated_at"
const episodeColumns = "id, novel_id, episode_number, title, duration_seconds, price_coins, created_at, updated_at"

func scanNovel(scan func(dest ...interface{}) error) (model.Novel, error) {
	var n model.Novel
	err := scan(&n.ID, &n.CreatorID, &n.Title, &n.Author, &n.Description, &n.Language, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func scanEpisode(scan func(dest ...interface{}) error) (model.Episode, error) {
	var e model.Episode
	err := scan(&e.ID, &e.NovelID, &e.EpisodeNumber, &e.Title, &e.DurationSeconds, &e.PriceCoins, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// ListNovels returns all novels, newest first.
func (r *CatalogRepo) ListNovels(ctx context.Context) ([]model.Novel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+novelColumns+" FROM novels ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	novels := make([]model.Novel, 0)
	for rows.Next() {
		n, err := scanNovel(rows.Scan)
		if err != nil {
			return nil, err
		}
		novels = append(novels, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return novels, nil
}

// ListNovelsByCreator returns the novels owned by one creator.
func (r *CatalogRepo) ListNovelsByCreator(ctx context.Context, creatorID uint64) ([]model.Novel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+novelColumns+" FROM novels WHERE creator_id=? ORDER BY created_at DESC, id DESC", creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	novels := make([]model.Novel, 0)
	for rows.Next() {
		n, err := scanNovel(rows.Scan)
		if err != nil {
			return nil, err
		}
		novels = append(novels, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return novels, nil
}

// GetNovel returns a single novel or ErrNovelNotFound.
func (r *CatalogRepo) GetNovel(ctx context.Context, id uint64) (model.Novel, error) {
	n, err := scanNovel(r.DB.QueryRowContext(ctx,
		"SELECT "+novelColumns+" FROM novels WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return n, ErrNovelNotFound
	}
	return n, err
}

// CreateNovel inserts a novel owned by the given creator.
func (r *CatalogRepo) CreateNovel(ctx context.Context, n *model.Novel) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO novels (creator_id, title, author, description, language) VALUES (?,?,?,?,?)",
		n.CreatorID, n.Title, n.Author, n.Description, n.Language)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// UpdateNovel applies metadata edits after verifying ownership.
// Returns ErrForbidden when the novel belongs to another creator.
func (r *CatalogRepo) UpdateNovel(ctx context.Context, n model.Novel) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT creator_id FROM novels WHERE id=? LIMIT 1", n.ID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNovelNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != n.CreatorID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE novels SET title=?, author=?, description=?, language=? WHERE id=?",
		n.Title, n.Author, n.Description, n.Language, n.ID)
	return err
}

// DeleteNovel removes a novel and its episodes after verifying
// ownership. Deletion is refused with ErrConflict when any of the
// novel's episodes has been unlocked, since unlock records must
// survive for history.
func (r *CatalogRepo) DeleteNovel(ctx context.Context, novelID, creatorID uint64) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT creator_id FROM novels WHERE id=? LIMIT 1", novelID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNovelNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != creatorID {
		return ErrForbidden
	}
	var unlocked uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM unlocks u JOIN episodes e ON e.id = u.episode_id WHERE e.novel_id = ?",
		novelID).Scan(&unlocked)
	if err != nil {
		return err
	}
	if unlocked > 0 {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM novels WHERE id=?", novelID)
	return err
}

// ListEpisodes returns a novel's episodes in reading order.
func (r *CatalogRepo) ListEpisodes(ctx context.Context, novelID uint64) ([]model.Episode, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE novel_id=? ORDER BY episode_number ASC", novelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	episodes := make([]model.Episode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows.Scan)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return episodes, nil
}

// GetEpisode returns a single episode or ErrEpisodeNotFound.
func (r *CatalogRepo) GetEpisode(ctx context.Context, id uint64) (model.Episode, error) {
	e, err := scanEpisode(r.DB.QueryRowContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return e, ErrEpisodeNotFound
	}
	return e, err
}

// GetEpisodeTx is GetEpisode within an existing transaction; the
// ledger reads the current price through it so the unlock snapshot
// and the debit see the same value.
func (r *CatalogRepo) GetEpisodeTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Episode, error) {
	e, err := scanEpisode(tx.QueryRowContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return e, ErrEpisodeNotFound
	}
	return e, err
}

// CreateEpisode inserts an episode after verifying the creator owns
// the novel.
func (r *CatalogRepo) CreateEpisode(ctx context.Context, creatorID uint64, e *model.Episode) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT creator_id FROM novels WHERE id=? LIMIT 1", e.NovelID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNovelNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != creatorID {
		return ErrForbidden
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO episodes (novel_id, episode_number, title, duration_seconds, price_coins) VALUES (?,?,?,?,?)",
		e.NovelID, e.EpisodeNumber, e.Title, e.DurationSeconds, e.PriceCoins)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateEpisode applies edits, including price changes, after
// verifying ownership through the owning novel. Existing unlocks are
// unaffected by price changes because the unlock rows snapshot the
// price paid.
func (r *CatalogRepo) UpdateEpisode(ctx context.Context, creatorID uint64, e model.Episode) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT n.creator_id FROM episodes ep JOIN novels n ON n.id = ep.novel_id WHERE ep.id=? LIMIT 1`,
		e.ID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrEpisodeNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != creatorID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE episodes SET title=?, episode_number=?, duration_seconds=?, price_coins=? WHERE id=?",
		e.Title, e.EpisodeNumber, e.DurationSeconds, e.PriceCoins, e.ID)
	return err
}
