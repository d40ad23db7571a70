package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

func rowCursor(r row) Cursor { return Cursor{CreatedAt: r.CreatedAt, ID: r.ID} }

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	now := time.Now().UTC()
	rows := []row{
		{ID: uuid.New(), CreatedAt: now},
		{ID: uuid.New(), CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Minute)},
	}

	page := Trim(rows, 2, rowCursor)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	cursor, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, cursor.ID)

	last := Trim(rows[:2], 2, rowCursor)
	assert.Len(t, last.Items, 2)
	assert.Empty(t, last.NextCursor)

	empty := Trim[row](nil, 2, rowCursor)
	assert.NotNil(t, empty.Items)
}

func TestMap(t *testing.T) {
	page := Page[int]{Items: []int{1, 2}, NextCursor: "abc"}
	out := Map(page, func(v int) string { return string(rune('a' + v)) })
	assert.Equal(t, []string{"b", "c"}, out.Items)
	assert.Equal(t, "abc", out.NextCursor)
}
