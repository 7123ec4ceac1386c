package placesdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const placeColumns = `id, name, place_type, description, image_url, facebook_url,
	instagram_url, website_url, phone, lon, lat, created_at, updated_at`

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlace(row rowScanner) (Place, error) {
	var p Place
	var description, imageURL, facebookURL, instagramURL, websiteURL, phone sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.PlaceType, &description, &imageURL, &facebookURL,
		&instagramURL, &websiteURL, &phone, &p.Lon, &p.Lat, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Place{}, err
	}
	p.Description = description.String
	p.ImageURL = imageURL.String
	p.FacebookURL = facebookURL.String
	p.InstagramURL = instagramURL.String
	p.WebsiteURL = websiteURL.String
	p.Phone = phone.String
	return p, nil
}

func collectPlaces(rows *sql.Rows) ([]Place, error) {
	defer rows.Close() // nolint:errcheck

	places := []Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// GetPlace returns the place with the given id or ErrNotFound.
func (q *Queries) GetPlace(ctx context.Context, id int64) (Place, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id)
	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Place{}, ErrNotFound
	}
	return p, err
}

// ListPlaces returns places matching every set field of the filter, by id.
// The text query matches name or description, ignoring case.
func (q *Queries) ListPlaces(ctx context.Context, filter PlaceFilter) ([]Place, error) {
	var where []string
	var args []interface{}

	if len(filter.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Types)), ",")
		where = append(where, "place_type IN ("+placeholders+")")
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}

	if b := filter.Bound; b != nil {
		where = append(where, `id IN (
			SELECT id FROM places_rtree
			WHERE max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?)`)
		args = append(args, b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
	}

	if text := strings.TrimSpace(filter.Query); text != "" {
		where = append(where,
			"(instr(casefold(name), casefold(?)) > 0 OR instr(casefold(COALESCE(description, '')), casefold(?)) > 0)")
		args = append(args, text, text)
	}

	query := `SELECT ` + placeColumns + ` FROM places`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	return collectPlaces(rows)
}

// CreatePlace inserts a place and returns it as stored.
func (q *Queries) CreatePlace(ctx context.Context, arg CreatePlaceParams) (Place, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO places (
			name, place_type, description, image_url, facebook_url,
			instagram_url, website_url, phone, lon, lat
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.PlaceType, toNullString(arg.Description), toNullString(arg.ImageURL),
		toNullString(arg.FacebookURL), toNullString(arg.InstagramURL),
		toNullString(arg.WebsiteURL), toNullString(arg.Phone), arg.Lon, arg.Lat,
	)
	if err != nil {
		return Place{}, fmt.Errorf("inserting place: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Place{}, err
	}
	return q.GetPlace(ctx, id)
}

// UpdatePlace applies the set fields of arg and returns the updated place.
func (q *Queries) UpdatePlace(ctx context.Context, id int64, arg UpdatePlaceParams) (Place, error) {
	sets := []string{"updated_at = " + nowExpr}
	var args []interface{}

	text := func(column string, v *string, nullable bool) {
		if v == nil {
			return
		}
		sets = append(sets, column+" = ?")
		if nullable {
			args = append(args, toNullString(*v))
		} else {
			args = append(args, *v)
		}
	}
	text("name", arg.Name, false)
	text("place_type", arg.PlaceType, false)
	text("description", arg.Description, true)
	text("image_url", arg.ImageURL, true)
	text("facebook_url", arg.FacebookURL, true)
	text("instagram_url", arg.InstagramURL, true)
	text("website_url", arg.WebsiteURL, true)
	text("phone", arg.Phone, true)

	if arg.Lon != nil && arg.Lat != nil {
		sets = append(sets, "lon = ?", "lat = ?")
		args = append(args, *arg.Lon, *arg.Lat)
	}

	args = append(args, id)
	res, err := q.db.ExecContext(ctx, `UPDATE places SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return Place{}, fmt.Errorf("updating place %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Place{}, ErrNotFound
	}
	return q.GetPlace(ctx, id)
}

func (q *Queries) deletePlace(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting place %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct place types, sorted.
func (q *Queries) Categories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT place_type FROM places WHERE place_type <> '' ORDER BY place_type`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountByType returns how many places have the given type.
func (q *Queries) CountByType(ctx context.Context, placeType string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places WHERE place_type = ?`, placeType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s places: %w", placeType, err)
	}
	return n, nil
}
