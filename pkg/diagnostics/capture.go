// Package diagnostics writes page captures (UI hierarchy + screenshot) to disk.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/devicelab-dev/appium-extension/pkg/core"
)

const maxStampAttempts = 100

// Page is the part of a remote session a capture reads.
type Page interface {
	Source() (string, error)
	Screenshot() ([]byte, error)
}

// Capturer saves page captures under one directory.
type Capturer struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// NewCapturer creates a capturer writing to dir.
func NewCapturer(dir string, log *zap.Logger) *Capturer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Capturer{dir: dir, log: log, now: time.Now}
}

// WithClock overrides the time source used for file stamps.
func (c *Capturer) WithClock(now func() time.Time) *Capturer {
	c.now = now
	return c
}

// Dir returns the output directory.
func (c *Capturer) Dir() string {
	return c.dir
}

// Stamp formats t as unix seconds with a microsecond fraction.
func Stamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// Save captures the current page and writes <stamp>.xml and <stamp>.png.
// Existing files are never overwritten; a colliding stamp is moved forward
// by one microsecond.
func (c *Capturer) Save(page Page) (core.PageArtifact, error) {
	var art core.PageArtifact

	source, err := page.Source()
	if err != nil {
		return art, fmt.Errorf("failed to get page source: %w", err)
	}
	hierarchy, nodes := formatHierarchy(source)

	stamp, xmlPath, err := c.createExclusive(hierarchy)
	if err != nil {
		return art, err
	}
	art.Stamp = stamp
	art.Hierarchy = core.NewHierarchyAttachment(xmlPath, hierarchy)

	png, err := page.Screenshot()
	if err != nil {
		return art, fmt.Errorf("failed to get screenshot: %w", err)
	}
	pngPath := filepath.Join(c.dir, stamp+".png")
	if err := writeNew(pngPath, png); err != nil {
		return art, err
	}
	art.Screenshot = core.NewScreenshotAttachment(pngPath, png)

	c.log.Info(fmt.Sprintf("Current screen is saved as the '%s'", pngPath),
		zap.String("hierarchy", xmlPath), zap.Int("nodes", nodes))
	return art, nil
}

func (c *Capturer) createExclusive(data []byte) (string, string, error) {
	t := c.now()
	for i := 0; i < maxStampAttempts; i++ {
		stamp := Stamp(t)
		path := filepath.Join(c.dir, stamp+".xml")
		err := writeNew(path, data)
		if err == nil {
			if _, statErr := os.Stat(filepath.Join(c.dir, stamp+".png")); statErr == nil {
				// orphan png from an earlier capture, keep the pair unique
				os.Remove(path)
				t = t.Add(time.Microsecond)
				continue
			}
			return stamp, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		t = t.Add(time.Microsecond)
	}
	return "", "", fmt.Errorf("no free capture name in %s", c.dir)
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //#nosec G304 -- path built from the configured directory
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatHierarchy indents the page source. Sources that do not parse are
// written unchanged.
func formatHierarchy(source string) ([]byte, int) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(source); err != nil || doc.Root() == nil {
		return []byte(source), 0
	}
	nodes := len(doc.FindElements("//*"))
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return []byte(source), nodes
	}
	return out, nodes
}
