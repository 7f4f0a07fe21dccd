package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// CurrentVersion is the envelope version Encode writes
const CurrentVersion = 1

// CompressThreshold is the encoded size above which blobs are compressed
const CompressThreshold = 4 * 1024

// ErrCorrupt is returned for blobs that cannot be decoded
var ErrCorrupt = errors.New("corrupt preference blob")

var compressedMagic = []byte("NXZ1")

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

type envelope struct {
	Version int         `json:"version"`
	Data    Preferences `json:"data"`
}

// Migration upgrades the data of one version to the next
type Migration func(data map[string]any) (map[string]any, error)

// migrations is keyed by the version a migration upgrades from
var migrations = map[int]Migration{
	0: migrateLegacy,
}

// Encode serializes preferences into a versioned blob
func Encode(p Preferences) ([]byte, error) {
	raw, err := sonic.Marshal(envelope{Version: CurrentVersion, Data: p})
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	if len(raw) <= CompressThreshold {
		return raw, nil
	}

	out := make([]byte, 0, len(compressedMagic)+len(raw)/2)
	out = append(out, compressedMagic...)
	return zstdEncoder.EncodeAll(raw, out), nil
}

// Decode parses a blob of any known version, overlaying stored fields onto
// defaults. The returned version is the one found in the blob.
func Decode(blob []byte) (Preferences, int, error) {
	if bytes.HasPrefix(blob, compressedMagic) {
		raw, err := zstdDecoder.DecodeAll(blob[len(compressedMagic):], nil)
		if err != nil {
			return Preferences{}, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		blob = raw
	}

	var root map[string]any
	if err := sonic.Unmarshal(blob, &root); err != nil {
		return Preferences{}, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	version, data := unwrap(root)
	for v := version; v < CurrentVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return Preferences{}, version, fmt.Errorf("%w: no migration from version %d", ErrCorrupt, v)
		}
		var err error
		if data, err = migrate(data); err != nil {
			return Preferences{}, version, fmt.Errorf("migrate from version %d: %w", v, err)
		}
	}

	raw, err := sonic.Marshal(data)
	if err != nil {
		return Preferences{}, version, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	p := Defaults()
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return Preferences{}, version, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	p.normalize(nil)
	return p, version, nil
}

// unwrap finds the data and version of an envelope. Blobs written by the
// browser build are {"state": {...}, "version": 0}.
func unwrap(root map[string]any) (int, map[string]any) {
	version := 0
	if v, ok := root["version"].(float64); ok {
		version = int(v)
	}
	if data, ok := root["data"].(map[string]any); ok {
		return version, data
	}
	if state, ok := root["state"].(map[string]any); ok {
		return 0, state
	}
	return 0, root
}

var legacyKeys = map[string]string{
	"isMuted":               "is_muted",
	"skipBoot":              "skip_boot",
	"performanceMode":       "performance_mode",
	"particlesEnabled":      "particles_enabled",
	"matrixRainEnabled":     "matrix_rain_enabled",
	"commandPaletteHistory": "palette_history",
}

var legacyProgressKeys = map[string]string{
	"appsOpened":       "apps_opened",
	"commandsExecuted": "commands_executed",
	"highScore":        "high_score",
	"projectsExpanded": "projects_expanded",
	"shortcutsUsed":    "shortcuts_used",
	"sectionsVisited":  "sections_visited",
}

// migrateLegacy converts the camelCase browser blob
func migrateLegacy(data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if nk, ok := legacyKeys[k]; ok {
			k = nk
		}
		out[k] = v
	}

	legacy, ok := data["achievementProgress"].(map[string]any)
	if !ok {
		return out, nil
	}
	delete(out, "achievementProgress")

	progress := make(map[string]any, len(legacy))
	for k, v := range legacy {
		if nk, ok := legacyProgressKeys[k]; ok {
			progress[nk] = v
		}
	}
	if ms, ok := legacy["bootTime"].(float64); ok {
		progress["booted_at"] = time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
	}
	out["progress"] = progress
	return out, nil
}
