package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePage struct {
	source    string
	png       []byte
	sourceErr error
	shotErr   error
}

func (p *fakePage) Source() (string, error)     { return p.source, p.sourceErr }
func (p *fakePage) Screenshot() ([]byte, error) { return p.png, p.shotErr }

var fixed = time.Unix(1700000000, 123456789)

func TestStamp(t *testing.T) {
	assert.Equal(t, "1700000000.123456", Stamp(fixed))
	assert.Equal(t, "1700000000.000001", Stamp(time.Unix(1700000000, 1000)))
}

func TestCapturer_Save(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zap.InfoLevel)
	c := NewCapturer(dir, zap.New(core)).WithClock(func() time.Time { return fixed })

	page := &fakePage{
		source: `<hierarchy><node text="a"/><node text="b"><node/></node></hierarchy>`,
		png:    []byte("png-bytes"),
	}

	art, err := c.Save(page)
	require.NoError(t, err)

	assert.Equal(t, "1700000000.123456", art.Stamp)
	assert.Equal(t, filepath.Join(dir, "1700000000.123456.xml"), art.Hierarchy.Path)
	assert.Equal(t, filepath.Join(dir, "1700000000.123456.png"), art.Screenshot.Path)

	xml, err := os.ReadFile(art.Hierarchy.Path)
	require.NoError(t, err)
	assert.Contains(t, string(xml), "\n  <node text=\"a\"/>", "hierarchy should be indented")

	png, err := os.ReadFile(art.Screenshot.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(png))

	entries := logs.FilterMessageSnippet(art.Screenshot.Path).All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["nodes"])
}

func TestCapturer_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	c := NewCapturer(dir, nil).WithClock(func() time.Time { return fixed })
	page := &fakePage{source: "<hierarchy/>", png: []byte("x")}

	first, err := c.Save(page)
	require.NoError(t, err)
	second, err := c.Save(page)
	require.NoError(t, err)

	assert.NotEqual(t, first.Stamp, second.Stamp)
	assert.Equal(t, "1700000000.123457", second.Stamp)

	files, _ := os.ReadDir(dir)
	assert.Len(t, files, 4)
}

func TestCapturer_OrphanScreenshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000.123456.png"), []byte("old"), 0o644))

	c := NewCapturer(dir, nil).WithClock(func() time.Time { return fixed })
	art, err := c.Save(&fakePage{source: "<hierarchy/>", png: []byte("new")})
	require.NoError(t, err)

	assert.Equal(t, "1700000000.123457", art.Stamp)
	old, _ := os.ReadFile(filepath.Join(dir, "1700000000.123456.png"))
	assert.Equal(t, "old", string(old))
	_, err = os.Stat(filepath.Join(dir, "1700000000.123456.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestCapturer_UnparsableSourceWrittenRaw(t *testing.T) {
	dir := t.TempDir()
	c := NewCapturer(dir, nil)

	art, err := c.Save(&fakePage{source: "not xml at all", png: []byte("x")})
	require.NoError(t, err)

	xml, _ := os.ReadFile(art.Hierarchy.Path)
	assert.Equal(t, "not xml at all", string(xml))
}

func TestCapturer_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("source", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewCapturer(dir, nil).Save(&fakePage{sourceErr: boom})
		assert.ErrorIs(t, err, boom)
		files, _ := os.ReadDir(dir)
		assert.Empty(t, files)
	})

	t.Run("screenshot", func(t *testing.T) {
		_, err := NewCapturer(t.TempDir(), nil).Save(&fakePage{source: "<a/>", shotErr: boom})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "absent")
		_, err := NewCapturer(dir, nil).Save(&fakePage{source: "<a/>", png: []byte("x")})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "absent"))
	})
}
