package textoverlay

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/menta2k/snapfx/pkg/errors"
)

// FontLoader resolves font names to faces. Parsed fonts are cached by path,
// faces are created per call because they are not safe for concurrent use.
type FontLoader struct {
	logger *log.Logger

	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

// NewFontLoader creates an empty loader
func NewFontLoader(logger *log.Logger) *FontLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &FontLoader{logger: logger, fonts: make(map[string]*opentype.Font)}
}

// Locate returns the file for a font name. A name that is an existing file is
// used as is, anything else is searched among the system fonts.
func (l *FontLoader) Locate(name string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}
	path, err := findfont.Find(name)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFontNotFound, err, "font %q not found", name)
	}
	return path, nil
}

// Load returns the parsed font for name. An empty name selects the built-in
// font. A located file that fails to parse also falls back to it. The result
// is nil when only the bitmap face is available.
func (l *FontLoader) Load(name string) (*opentype.Font, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return l.builtin(), nil
	}
	path, err := l.Locate(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	f, ok := l.fonts[path]
	l.mu.Unlock()
	if ok {
		return f, nil
	}

	f, err = parseFile(path)
	if err != nil {
		l.logger.Warn("cannot parse font, using built-in font", "font", path, "err", err)
		return l.builtin(), nil
	}
	l.mu.Lock()
	l.fonts[path] = f
	l.mu.Unlock()
	return f, nil
}

// Face returns a face for name at size pixels.
func (l *FontLoader) Face(name string, size int) (font.Face, error) {
	f, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return basicfont.Face7x13, nil
	}
	opts := &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(f, opts)
	if err == nil {
		return face, nil
	}
	l.logger.Warn("cannot size font, using built-in face", "size", size, "err", err)
	if b := l.builtin(); b != nil && b != f {
		if face, err := opentype.NewFace(b, opts); err == nil {
			return face, nil
		}
	}
	return basicfont.Face7x13, nil
}

func (l *FontLoader) builtin() *opentype.Font {
	const key = "<goregular>"
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.fonts[key]; ok {
		return f
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		l.logger.Warn("built-in font unavailable, using bitmap face", "err", err)
		f = nil
	}
	l.fonts[key] = f
	return f
}

func parseFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		c, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return c.Font(0)
	}
	return opentype.Parse(data)
}
