package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/mo"

	"github.com/Raimguhinov/linkal/pkg/postgres"
)

const calendarsQuery = `
	SELECT segment, name, url, color
	  FROM linkal.calendars
	 ORDER BY position, segment`

// Querier is the part of a pgx pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads calendars from linkal.calendars. A NULL or empty segment
// is derived from the URL the same way the file loader does.
func LoadPostgres(ctx context.Context, q Querier) (*Registry, error) {
	rows, err := q.Query(ctx, calendarsQuery)
	if err != nil {
		return nil, fmt.Errorf("registry - LoadPostgres - Query: %w", postgres.ToPgErr(err))
	}
	defer rows.Close()

	var calendars []Calendar
	for rows.Next() {
		var (
			segment, color pgtype.Text
			name, u        string
		)
		if err := rows.Scan(&segment, &name, &u, &color); err != nil {
			return nil, fmt.Errorf("registry - LoadPostgres - Scan: %w", err)
		}

		c := Calendar{Name: name, URL: u, Segment: segment.String}
		if !segment.Valid || segment.String == "" {
			if c.Segment, err = SegmentFromURL(u); err != nil {
				return nil, err
			}
		}
		if color.Valid && color.String != "" {
			c.Color = mo.Some(color.String)
		}
		calendars = append(calendars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry - LoadPostgres - rows.Err: %w", postgres.ToPgErr(err))
	}
	return New(calendars)
}
