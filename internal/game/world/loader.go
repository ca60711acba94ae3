package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BehaviorAttacher attaches event listeners and scripted behaviors to a room
// at construction time. Implementations live outside this package; the loader
// only requires the contract.
type BehaviorAttacher interface {
	// Attach wires the behaviors named by the room record onto the room's
	// emitter. l10nDir and scriptDir give the attachment context.
	Attach(cfg RoomConfig, l10nDir, scriptDir string, room *Room) error
}

// NopAttacher is a BehaviorAttacher that attaches nothing.
type NopAttacher struct{}

// Attach does nothing and always succeeds.
func (NopAttacher) Attach(RoomConfig, string, string, *Room) error { return nil }

// LoaderConfig describes the content tree the loader walks.
type LoaderConfig struct {
	// Root is the areas directory: one subdirectory per area.
	Root string
	// ManifestName is the per-area manifest file name. Empty = "manifest.yml".
	ManifestName string
	// L10nDir is the localization script directory passed to attachment.
	L10nDir string
	// ScriptDir is the behavior script directory passed to attachment.
	ScriptDir string
}

// Loader performs the one-shot world load pass. The pass is sequential and
// tolerant: every fault below the root directory is scoped to one area, one
// file, or one record, logged, and skipped. Only a failure to enumerate the
// root itself aborts the pass.
type Loader struct {
	cfg      LoaderConfig
	attacher BehaviorAttacher
	logger   *zap.Logger
}

// NewLoader creates a Loader.
//
// Precondition: cfg.Root must be non-empty. attacher and logger may be nil,
// in which case behaviors are not attached and diagnostics are discarded.
func NewLoader(cfg LoaderConfig, attacher BehaviorAttacher, logger *zap.Logger) *Loader {
	if cfg.ManifestName == "" {
		cfg.ManifestName = "manifest.yml"
	}
	if attacher == nil {
		attacher = NopAttacher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, attacher: attacher, logger: logger}
}

// Load walks the content tree and builds the world index. Cancellation is
// checked between area directories. onComplete, if non-nil, is invoked
// exactly once after every area directory has been attempted; it is never
// invoked when the pass fails.
//
// Precondition: ctx may be nil, in which case the pass is uncancellable.
// Postcondition: Returns a non-nil Index containing everything that loaded
// successfully, or a non-nil error only when the root directory cannot be
// enumerated or ctx is cancelled.
func (l *Loader) Load(ctx context.Context, onComplete func(*Index)) (*Index, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	idx := NewIndex()

	entries, err := os.ReadDir(l.cfg.Root)
	if err != nil {
		l.logger.Error("reading areas directory",
			zap.String("dir", l.cfg.Root),
			zap.Error(err),
		)
		return nil, fmt.Errorf("reading areas directory %s: %w", l.cfg.Root, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			l.logger.Error("world load cancelled", zap.Error(err))
			return nil, fmt.Errorf("loading world: %w", err)
		}
		// Each area lives in a directory; anything else is noise.
		if !entry.IsDir() {
			continue
		}
		l.loadArea(idx, filepath.Join(l.cfg.Root, entry.Name()))
	}

	if onComplete != nil {
		onComplete(idx)
	}
	return idx, nil
}

// loadArea processes one area directory: manifest first, then every room
// file. Faults are logged and scoped to the area or the offending file.
func (l *Loader) loadArea(idx *Index, dir string) {
	l.logger.Debug("examining area directory", zap.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.Warn("skipping area: directory not readable",
			zap.String("dir", dir),
			zap.Error(err),
		)
		return
	}

	if !hasManifest(entries, l.cfg.ManifestName) {
		l.logger.Warn("skipping area: no manifest",
			zap.String("dir", dir),
			zap.String("manifest", l.cfg.ManifestName),
			zap.Error(ErrMissingManifest),
		)
		return
	}

	areaKey, area, ok := l.loadManifest(filepath.Join(dir, l.cfg.ManifestName))
	if !ok {
		return
	}
	if area != nil {
		idx.putArea(area)
		l.logger.Debug("loading area",
			zap.String("area", area.Key),
			zap.String("title", area.Title.Resolve("en")),
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == l.cfg.ManifestName || !isYAML(name) {
			continue
		}
		l.loadRoomFile(idx, areaKey, filepath.Join(dir, name))
	}
}

// loadManifest parses an area manifest. The manifest is expected to define
// exactly one area record; extras are dropped with a warning. A record
// without a title is rejected, in which case rooms in the directory still
// load under the record's key but no area is registered: the room-to-area
// relation is a reference, not ownership.
//
// Returns ok=false only when the manifest itself cannot be read or parsed,
// which aborts the whole area.
func (l *Loader) loadManifest(path string) (areaKey string, area *Area, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("skipping area: manifest not readable",
			zap.String("file", path),
			zap.Error(err),
		)
		return "", nil, false
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		l.logger.Warn("skipping area: manifest parse error",
			zap.String("file", path),
			zap.Error(err),
		)
		return "", nil, false
	}

	root := mappingRoot(&doc)
	if root == nil {
		l.logger.Warn("skipping area: manifest is not a mapping",
			zap.String("file", path),
		)
		return "", nil, false
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if area != nil {
			l.logger.Warn("manifest defines more than one area, dropping extras",
				zap.String("file", path),
			)
			break
		}

		areaKey = root.Content[i].Value
		rec := root.Content[i+1]

		if !hasMappingKey(rec, "title") {
			l.logger.Warn("area not registered",
				zap.String("file", path),
				zap.String("area", areaKey),
				zap.Error(ErrMissingTitle),
			)
			break
		}

		var fields map[string]any
		if err := rec.Decode(&fields); err != nil {
			l.logger.Warn("skipping area: manifest record decode error",
				zap.String("file", path),
				zap.String("area", areaKey),
				zap.Error(err),
			)
			return "", nil, false
		}
		var titled struct {
			Title Text `yaml:"title"`
		}
		if err := rec.Decode(&titled); err != nil {
			l.logger.Warn("skipping area: manifest record decode error",
				zap.String("file", path),
				zap.String("area", areaKey),
				zap.Error(err),
			)
			return "", nil, false
		}

		area = &Area{Key: areaKey, Title: titled.Title, Fields: fields}
	}

	return areaKey, area, true
}

// loadRoomFile parses one room-definition file and registers every valid
// record. Invalid records are skipped with a diagnostic.
func (l *Loader) loadRoomFile(idx *Index, areaKey, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("skipping room file: not readable",
			zap.String("file", path),
			zap.Error(err),
		)
		return
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		l.logger.Warn("skipping room file: parse error",
			zap.String("file", path),
			zap.Error(err),
		)
		return
	}

	root := mappingRoot(&doc)
	if root == nil {
		l.logger.Warn("skipping room file: not a mapping",
			zap.String("file", path),
		)
		return
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		rec := root.Content[i+1]

		if err := ValidateRoomRecord(rec); err != nil {
			l.logger.Warn("skipping room record",
				zap.String("file", path),
				zap.String("record", key),
				zap.Error(err),
			)
			continue
		}

		var cfg RoomConfig
		if err := rec.Decode(&cfg); err != nil {
			l.logger.Warn("skipping room record: decode error",
				zap.String("file", path),
				zap.String("record", key),
				zap.Error(err),
			)
			continue
		}
		cfg.Area = areaKey
		cfg.Filename = path
		cfg.FileIndex = key

		room := NewRoom(cfg)
		if err := l.attacher.Attach(cfg, l.cfg.L10nDir, l.cfg.ScriptDir, room); err != nil {
			// The room still loads; a broken script must not unload content.
			l.logger.Warn("attaching behaviors",
				zap.String("location", string(cfg.Location)),
				zap.String("file", path),
				zap.Error(err),
			)
		}

		if replaced := idx.putRoom(room); replaced {
			l.logger.Warn("duplicate location, earlier room replaced",
				zap.String("location", string(cfg.Location)),
				zap.String("file", path),
			)
		}
		l.logger.Debug("loaded room",
			zap.String("location", string(cfg.Location)),
			zap.String("file", path),
			zap.String("record", key),
		)
	}
}

// hasManifest reports whether the directory listing contains the manifest.
func hasManifest(entries []os.DirEntry, manifestName string) bool {
	for _, e := range entries {
		if !e.IsDir() && e.Name() == manifestName {
			return true
		}
	}
	return false
}

// mappingRoot unwraps a parsed document down to its top-level mapping node,
// or nil if the document is not a mapping.
func mappingRoot(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
