package corestorage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/blacktop/darwinist/pkg/blockparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/cs_list.txt")
	require.NoError(t, err)
	return data
}

func TestParse(t *testing.T) {
	list, err := Parse(readFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Groups, 2)

	hd := list.Groups[0]
	assert.Equal(t, "1A2B3C4D-0000-1111-2222-333344445555", hd.UUID)
	assert.Equal(t, "Macintosh HD", hd.Name)
	assert.Equal(t, "Online", hd.Status)
	assert.Equal(t, int64(499418034176), hd.Size)
	assert.Zero(t, hd.FreeSpace)

	require.Len(t, hd.PhysicalVolumes, 1)
	pv := hd.PhysicalVolumes[0]
	assert.Equal(t, "disk0s2", pv.Disk)
	assert.Equal(t, int64(0), pv.Index)
	assert.Equal(t, int64(499418034176), pv.Size)

	require.Len(t, hd.Families, 1)
	fam := hd.Families[0]
	assert.Equal(t, "AES-XTS", fam.EncryptionType)
	assert.Equal(t, "Unlocked", fam.EncryptionStatus)
	assert.Equal(t, "Complete", fam.ConversionStatus)
	assert.False(t, fam.Encrypted)

	vols := hd.Volumes()
	require.Len(t, vols, 1)
	assert.Equal(t, "disk1", vols[0].Disk)
	assert.Equal(t, int64(498999992320), vols[0].SizeTotal)
	assert.Equal(t, "Apple_HFS", vols[0].ContentHint)
	assert.Equal(t, "Yes (unlock and decryption required)", vols[0].Revertible)

	backup := list.Groups[1]
	assert.Equal(t, "Backup", backup.Name)
	// TB sized values stay text on the record
	assert.Zero(t, backup.Size)
	require.Len(t, backup.Families, 1)
	assert.Equal(t, int64(12), backup.Families[0].Sequence)
	assert.Equal(t, "-none-", backup.Families[0].ConversionDirection)
}

func TestParseTreeKeepsRawText(t *testing.T) {
	tree, err := ParseTree(readFixture(t))
	require.NoError(t, err)
	require.Len(t, tree.Records, 2)
	assert.Equal(t, "1000204886016 B (1.0 TB)", tree.Records[1].String("size"))
}

func TestFindVolume(t *testing.T) {
	list, err := Parse(readFixture(t))
	require.NoError(t, err)

	tests := []struct {
		id   string
		want string
		ok   bool
	}{
		{"disk3", "Backup", true},
		{"0F1E2D3C-4B5A-6978-8796-A5B4C3D2E1F0", "Macintosh HD", true},
		{"disk9", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v, ok := list.FindVolume(tt.id)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, v.VolumeName)
			}
		})
	}
}

func TestUnmappedFieldsLandInExtra(t *testing.T) {
	list, err := Parse([]byte("Logical Volume Group ABCD\n  Name: Foo\n  Vendor Note: hello\n"))
	require.NoError(t, err)
	require.Len(t, list.Groups, 1)
	assert.Equal(t, map[string]any{"vendor note": "hello"}, list.Groups[0].Extra)
	// no count header means the groups are counted
	assert.Equal(t, 1, list.Count)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("Logical Volume 0F1E\n  Disk: disk1\n"))
	assert.True(t, errors.Is(err, &blockparse.ParseError{Reason: blockparse.OutOfOrderInput}))
}

func TestLoad(t *testing.T) {
	r := commandtest.New().On("diskutil coreStorage list", string(readFixture(t)))
	list, err := Load(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, list.Groups, 2)

	failing := commandtest.New().Fail("diskutil coreStorage list", errors.New("exit status 1"))
	_, err = Load(context.Background(), failing)
	assert.ErrorContains(t, err, "failed to list coreStorage volumes")
}
