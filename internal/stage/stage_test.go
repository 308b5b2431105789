package stage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_SortsBySequence(t *testing.T) {
	c, err := NewCatalog([]Stage{
		{ID: 3, Name: "Print", Sequence: 30},
		{ID: 1, Name: "Intake", Sequence: 10},
		{ID: 2, Name: "Design", Sequence: 20},
	})

	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "Intake", c.At(0).Name)
	assert.Equal(t, "Design", c.At(1).Name)
	assert.Equal(t, "Print", c.At(2).Name)
}

func TestNewCatalog_DoesNotModifyInput(t *testing.T) {
	in := []Stage{
		{ID: 2, Name: "B", Sequence: 2},
		{ID: 1, Name: "A", Sequence: 1},
	}
	_, err := NewCatalog(in)

	require.NoError(t, err)
	assert.Equal(t, int64(2), in[0].ID)
}

func TestNewCatalog_DuplicateSequence(t *testing.T) {
	_, err := NewCatalog([]Stage{
		{ID: 1, Name: "A", Sequence: 1},
		{ID: 2, Name: "B", Sequence: 1},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSequence))
}

func TestCatalog_ZeroValue(t *testing.T) {
	var c Catalog

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, -1, c.IndexOf(1))
	assert.Empty(t, c.Stages())
}

func TestCatalog_Lookup(t *testing.T) {
	c := MustCatalog(
		Stage{ID: 10, Name: "Intake", Sequence: 1},
		Stage{ID: 20, Name: "Design", Sequence: 2},
	)

	assert.Equal(t, 1, c.IndexOf(20))
	assert.Equal(t, -1, c.IndexOf(99))

	s, ok := c.ByID(10)
	assert.True(t, ok)
	assert.Equal(t, "Intake", s.Name)

	s, ok = c.ByName("  design ")
	assert.True(t, ok)
	assert.Equal(t, int64(20), s.ID)

	_, ok = c.ByName("finance")
	assert.False(t, ok)
}

func TestCatalog_StagesReturnsCopy(t *testing.T) {
	c := MustCatalog(Stage{ID: 1, Name: "Intake", Sequence: 1})

	out := c.Stages()
	out[0].Name = "changed"

	assert.Equal(t, "Intake", c.At(0).Name)
}

func TestCatalog_MarkRestricted(t *testing.T) {
	c := MustCatalog(
		Stage{ID: 1, Name: "Intake", Sequence: 1},
		Stage{ID: 2, Name: "Finance", Sequence: 2},
		Stage{ID: 3, Name: "Legacy-import", Sequence: 3, Restricted: true},
	)

	marked := c.MarkRestricted([]string{"finance"})

	assert.False(t, marked.At(0).Restricted)
	assert.True(t, marked.At(1).Restricted)
	assert.True(t, marked.At(2).Restricted)
	// original untouched
	assert.False(t, c.At(1).Restricted)
}

func TestReadCatalogFile_Valid(t *testing.T) {
	c, err := ReadCatalogFile(filepath.Join("testdata", "shop.csv"))

	require.NoError(t, err)
	require.Equal(t, 5, c.Len())
	assert.Equal(t, "ประสานงาน", c.At(0).Name)
	assert.Equal(t, "ออกแบบ", c.At(1).Name)
	assert.Equal(t, "กระบวนการพิมพ์", c.At(2).Name)
	assert.False(t, c.At(2).Restricted, "empty restricted column defaults to false")
	assert.Equal(t, "การเงิน", c.At(3).Name)
	assert.True(t, c.At(3).Restricted)
	assert.Equal(t, int64(9), c.At(4).ID)
}

func TestReadCatalogFile_NotFound(t *testing.T) {
	_, err := ReadCatalogFile(filepath.Join("testdata", "nonexistent.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open stage catalog")
}

func TestReadCatalogFile_MissingColumn(t *testing.T) {
	_, err := ReadCatalogFile(filepath.Join("testdata", "missing_column.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column: sequence")
}

func TestReadCatalogFile_HeaderOnly(t *testing.T) {
	_, err := ReadCatalogFile(filepath.Join("testdata", "header_only.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stages")
}

func TestReadCatalogString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "bad id",
			data:    "id,name,sequence\nx,Intake,1\n",
			wantErr: "invalid id",
		},
		{
			name:    "empty name",
			data:    "id,name,sequence\n1,,1\n",
			wantErr: "stage name is required",
		},
		{
			name:    "bad sequence",
			data:    "id,name,sequence\n1,Intake,first\n",
			wantErr: "invalid sequence",
		},
		{
			name:    "bad restricted flag",
			data:    "id,name,sequence,restricted\n1,Intake,1,maybe\n",
			wantErr: "invalid restricted flag",
		},
		{
			name:    "duplicate sequence",
			data:    "id,name,sequence\n1,Intake,1\n2,Design,1\n",
			wantErr: "duplicate stage sequence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCatalogString(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadCatalogString_ColumnOrderAndCase(t *testing.T) {
	c, err := ReadCatalogString("Sequence, Name, ID\n2,Design,20\n1,Intake,10\n")

	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, int64(10), c.At(0).ID)
	assert.Equal(t, "Design", c.At(1).Name)
}
