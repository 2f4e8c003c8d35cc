package seed

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"things.json": {Data: []byte(`[{"id":"1","name":"a"},{"id":"2","name":"b"}]`)},
		"empty.json":  {Data: []byte(`null`)},
		"bad.json":    {Data: []byte(`{"id":`)},
	}

	rows, err := Load[row](fsys, "things.json")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = Load[row](fsys, "missing.json")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = Load[row](fsys, "empty.json")
	require.NoError(t, err)
	assert.NotNil(t, rows)

	_, err = Load[row](fsys, "bad.json")
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	tbl := NewTable([]row{{"1", "a"}, {"2", "b"}, {"3", "a"}})

	assert.Equal(t, 3, tbl.Len())
	assert.Len(t, tbl.Filter(nil), 3)
	assert.Len(t, tbl.Filter(func(r row) bool { return r.Name == "a" }), 2)

	got, ok := tbl.Find(func(r row) bool { return r.ID == "2" })
	assert.True(t, ok)
	assert.Equal(t, "b", got.Name)

	_, ok = tbl.Find(func(r row) bool { return r.ID == "9" })
	assert.False(t, ok)
}

func TestTable_FilterReturnsCopies(t *testing.T) {
	tbl := NewTable([]row{{"1", "a"}})
	out := tbl.Filter(nil)
	out[0].Name = "changed"

	again, _ := tbl.Find(func(r row) bool { return r.ID == "1" })
	assert.Equal(t, "a", again.Name)
}

func TestNilTable(t *testing.T) {
	var tbl *Table[row]
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Filter(nil))
	_, ok := tbl.Find(func(row) bool { return true })
	assert.False(t, ok)
}

func TestEmbeddedFixturesDecode(t *testing.T) {
	for _, name := range []string{Patients, Staff, Facilities, Drugs, Appointments} {
		rows, err := Load[map[string]interface{}](FS(), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, rows, "%s should ship fixture rows", name)
		for i, r := range rows {
			assert.NotEmpty(t, r["id"], "%s row %d has no id", name, i)
		}
	}
}
