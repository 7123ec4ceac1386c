package placesdb

import (
	"context"
	"fmt"
)

// ListImages returns the gallery of a place ordered by position.
func (q *Queries) ListImages(ctx context.Context, placeID int64) ([]PlaceImage, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, place_id, url, position, created_at
		FROM place_images
		WHERE place_id = ?
		ORDER BY position, id`, placeID)
	if err != nil {
		return nil, fmt.Errorf("listing images of place %d: %w", placeID, err)
	}
	defer rows.Close() // nolint:errcheck

	images := []PlaceImage{}
	for rows.Next() {
		var img PlaceImage
		if err := rows.Scan(&img.ID, &img.PlaceID, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (q *Queries) nextImagePosition(ctx context.Context, placeID int64) (int, error) {
	var next int
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM place_images WHERE place_id = ?`, placeID).Scan(&next)
	return next, err
}

func (q *Queries) insertImage(ctx context.Context, placeID int64, url string, position int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO place_images (place_id, url, position) VALUES (?, ?, ?)`, placeID, url, position)
	if err != nil {
		return fmt.Errorf("inserting image for place %d: %w", placeID, err)
	}
	return nil
}

// DeleteImage removes one image of a place, or returns ErrNotFound.
func (q *Queries) DeleteImage(ctx context.Context, placeID, imageID int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM place_images WHERE id = ? AND place_id = ?`, imageID, placeID)
	if err != nil {
		return fmt.Errorf("deleting image %d: %w", imageID, err)
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

// AddImages appends urls to the gallery of a place in one transaction and
// returns the full gallery.
func (c *Client) AddImages(ctx context.Context, placeID int64, urls []string) ([]PlaceImage, error) {
	var images []PlaceImage
	err := c.withTx(ctx, "add_images", func(q *Queries) error {
		if _, err := q.GetPlace(ctx, placeID); err != nil {
			return err
		}

		position, err := q.nextImagePosition(ctx, placeID)
		if err != nil {
			return err
		}
		for i, url := range urls {
			if err := q.insertImage(ctx, placeID, url, position+i); err != nil {
				return err
			}
		}

		images, err = q.ListImages(ctx, placeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// DeletePlace removes a place together with its gallery.
func (c *Client) DeletePlace(ctx context.Context, id int64) error {
	return c.withTx(ctx, "delete_place", func(q *Queries) error {
		if _, err := q.db.ExecContext(ctx, `DELETE FROM place_images WHERE place_id = ?`, id); err != nil {
			return fmt.Errorf("deleting images of place %d: %w", id, err)
		}
		return q.deletePlace(ctx, id)
	})
}
