package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
}

func TestScanGroupsByDate(t *testing.T) {
	root := t.TempDir()
	vehicle := filepath.Join(root, "AMB-101")

	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_20240615_a.txt"))
	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_20240615_b.txt"))
	writeFile(t, filepath.Join(vehicle, models.FormatGPS, "GPS-20240615.txt"))
	writeFile(t, filepath.Join(vehicle, models.FormatRotary, "ROT20240615.txt"))
	writeFile(t, filepath.Join(vehicle, models.FormatCAN, "20240616_can.txt"))

	groups, err := New(root, zap.NewNop()).Scan()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Ordered by date; first group is session-worthy, second is not.
	assert.Equal(t, "20240615", groups[0].Date)
	assert.Equal(t, "AMB-101", groups[0].VehicleID)
	assert.Len(t, groups[0].Stability, 2)
	assert.Len(t, groups[0].GPS, 1)
	assert.Len(t, groups[0].Rotary, 1)
	assert.Empty(t, groups[0].CAN)
	assert.True(t, groups[0].HasStability())

	assert.Equal(t, "20240616", groups[1].Date)
	assert.Len(t, groups[1].CAN, 1)
	assert.False(t, groups[1].HasStability())
}

func TestScanExcludesFilesWithoutDateToken(t *testing.T) {
	root := t.TempDir()
	vehicle := filepath.Join(root, "AMB-101")

	writeFile(t, filepath.Join(vehicle, models.FormatStability, "no-token.txt"))
	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_99999999.txt")) // invalid date
	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_20240615.csv")) // wrong extension
	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_20240615.txt"))

	groups, err := New(root, zap.NewNop()).Scan()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Stability, 1)
}

func TestScanMissingSubdirectories(t *testing.T) {
	root := t.TempDir()
	vehicle := filepath.Join(root, "AMB-102")

	// Only GPS exists; the other format directories are absent.
	writeFile(t, filepath.Join(vehicle, models.FormatGPS, "GPS_20240615.txt"))

	groups, err := New(root, zap.NewNop()).Scan()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].HasStability())
	assert.Len(t, groups[0].GPS, 1)
}

func TestScanEmptyRoot(t *testing.T) {
	groups, err := New(t.TempDir(), zap.NewNop()).Scan()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestScanSkipsUnreadableFormatDirectory(t *testing.T) {
	root := t.TempDir()
	vehicle := filepath.Join(root, "AMB-103")

	writeFile(t, filepath.Join(vehicle, models.FormatStability, "EST_20240615.txt"))
	// A format path that is a plain file makes ReadDir fail for that
	// format; the rest of the vehicle must still be scanned.
	require.NoError(t, os.WriteFile(filepath.Join(vehicle, models.FormatGPS), []byte("not a dir"), 0o644))

	groups, err := New(root, zap.NewNop()).Scan()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Stability, 1)
	assert.Empty(t, groups[0].GPS)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), zap.NewNop()).Scan()
	assert.Error(t, err)
}
