package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aseeltv/channelguide/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. The connection is not
// verified here; use WaitReady or Ping. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) ListSections(ctx context.Context, activeOnly bool) ([]models.Section, error) {
	q := `SELECT id, name, ord, is_active, description FROM sections`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY ord ASC, seq ASC`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListSections: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	for rows.Next() {
		var s models.Section
		var active bool
		if err := rows.Scan(&s.ID, &s.Name, &s.Order, &active, &s.Description); err != nil {
			return nil, fmt.Errorf("ListSections scan: %w", err)
		}
		s.IsActive = &active
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSections rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, image, url, app_url, download_url, ord, section_id
		 FROM channels ORDER BY ord ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	defer rows.Close()

	var out []models.Channel
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Image, &c.URL, &c.AppURL, &c.DownloadURL, &c.Order, &c.SectionID); err != nil {
			return nil, fmt.Errorf("ListChannels scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListChannels rows: %w", err)
	}
	return out, nil
}

// CreateSection inserts a section. An empty id gets a generated one; the
// assigned id is returned either way.
func (p *Postgres) CreateSection(ctx context.Context, s models.Section) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sections (id, name, ord, is_active, description)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Name, s.SortOrder(), s.Active(), s.Description)
	if err != nil {
		return "", fmt.Errorf("CreateSection: %w", err)
	}
	return s.ID, nil
}

func (p *Postgres) UpdateSection(ctx context.Context, id string, up SectionUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if up.Name != nil {
		add("name", *up.Name)
	}
	if up.Order != nil {
		add("ord", *up.Order)
	}
	if up.IsActive != nil {
		add("is_active", *up.IsActive)
	}
	if up.Description != nil {
		add("description", *up.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	tag, err := p.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE sections SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("UpdateSection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteSection(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteSection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateChannel inserts a channel. An empty id gets a generated one; the
// assigned id is returned either way.
func (p *Postgres) CreateChannel(ctx context.Context, c models.Channel) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO channels (id, name, image, url, app_url, download_url, ord, section_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Image, c.URL, c.AppURL, c.DownloadURL, c.SortOrder(), c.SectionID)
	if err != nil {
		return "", fmt.Errorf("CreateChannel: %w", err)
	}
	return c.ID, nil
}

func (p *Postgres) UpdateChannel(ctx context.Context, id string, up ChannelUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if up.Name != nil {
		add("name", *up.Name)
	}
	if up.Image != nil {
		add("image", *up.Image)
	}
	if up.URL != nil {
		add("url", *up.URL)
	}
	if up.AppURL != nil {
		add("app_url", *up.AppURL)
	}
	if up.DownloadURL != nil {
		add("download_url", *up.DownloadURL)
	}
	if up.Order != nil {
		add("ord", *up.Order)
	}
	if up.SectionID != nil {
		add("section_id", *up.SectionID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	tag, err := p.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE channels SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("UpdateChannel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteChannel(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteChannel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ProbeWrite verifies write access by inserting, reading back, and
// deleting a row in the connection_probe scratch table.
func (p *Postgres) ProbeWrite(ctx context.Context) error {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO connection_probe (note) VALUES ('connectivity check') RETURNING id`).Scan(&id)
	if err != nil {
		return fmt.Errorf("probe insert: %w", err)
	}
	var note string
	if err := p.pool.QueryRow(ctx, `SELECT note FROM connection_probe WHERE id = $1`, id).Scan(&note); err != nil {
		return fmt.Errorf("probe read: %w", err)
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM connection_probe WHERE id = $1`, id); err != nil {
		return fmt.Errorf("probe delete: %w", err)
	}
	return nil
}
