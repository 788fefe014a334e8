package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 1500, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	c, err := ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = ParseCursor("%%%")
	assert.Error(t, err)
	_, err = ParseCursor(EncodeCursor(Cursor{ID: uuid.New()})[:6])
	assert.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

type row struct {
	id uuid.UUID
	at time.Time
}

func TestTrimBuildsNextCursorFromLastKeptRow(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{uuid.New(), base}, {uuid.New(), base.Add(time.Minute)}, {uuid.New(), base.Add(2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := Trim(rows, 2, key)
	require.Len(t, page.Items, 2)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, next.ID)

	last := Trim(rows[2:], 2, key)
	assert.Len(t, last.Items, 1)
	assert.Empty(t, last.NextCursor)

	empty := Trim[row](nil, 2, key)
	assert.NotNil(t, empty.Items)
}
