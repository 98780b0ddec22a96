package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBacking struct {
	writes [][]byte
}

func (f *fakeBacking) WriteSector(idx int, sector []byte) error {
	cp := make([]byte, len(sector))
	copy(cp, sector)
	f.writes = append(f.writes, cp)
	return nil
}

func TestReadByteOutOfRange(t *testing.T) {
	d := NewBlockDevice(make([]byte, 1024), nil)
	require.Equal(t, -1, d.ReadByte(-1))
	require.Equal(t, -1, d.ReadByte(1024))
	require.GreaterOrEqual(t, d.ReadByte(0), 0)
}

func TestWriteBytesSingleSectorRoundTrip(t *testing.T) {
	d := NewBlockDevice(make([]byte, SectorSize*2), nil)
	n := d.WriteBytes(10, []byte("hello"))
	require.Equal(t, 5, n)
	require.Equal(t, int('h'), d.ReadByte(10))
	require.Equal(t, int('o'), d.ReadByte(14))
}

func TestWriteBytesSpanningSectorsTouchesBothSectors(t *testing.T) {
	fb := &fakeBacking{}
	d := NewBlockDevice(make([]byte, SectorSize*2), fb)

	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i + 1)
	}
	offset := int64(SectorSize - 5)
	n := d.WriteBytes(offset, data)
	require.Equal(t, len(data), n)
	require.Len(t, fb.writes, 2, "write spanning a sector boundary must touch both sectors")

	for i, b := range data {
		require.Equal(t, int(b), d.ReadByte(offset+int64(i)))
	}
}

func TestWriteBytesPastEndFails(t *testing.T) {
	d := NewBlockDevice(make([]byte, 16), nil)
	require.Equal(t, -1, d.WriteBytes(10, make([]byte, 10)))
}

func TestConsoleReadWaitsForFeed(t *testing.T) {
	var out bytesBuf
	c := NewConsole(&out)
	require.False(t, c.Ready())

	c.Feed([]byte("a"))
	require.True(t, c.Ready())
	require.Equal(t, byte('a'), c.Take())
	require.False(t, c.Ready())
}

type bytesBuf struct{ b []byte }

func (w *bytesBuf) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
