// Package snapshot persists and restores device configuration as JSON
// (spec.md §6 "Persisted state"). It is an external collaborator, not
// part of the translation core: the core never calls it directly.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/durec"
)

// MixerCell mirrors devicemodel.MixerCell for JSON stability
// independent of the in-memory shape.
type MixerCell struct {
	VolumeTenthDB int `json:"volume_tenth_db"`
	Pan           int `json:"pan"`
}

// InputState is the persisted form of one input channel.
type InputState struct {
	GainTenthDB int     `json:"gain_tenth_db"`
	Phantom48V  bool    `json:"phantom_48v"`
	HiZ         bool    `json:"hiz"`
	Mute        bool    `json:"mute"`
	Stereo      bool    `json:"stereo"`
	Width       float64 `json:"width"`
	RefLevel    int     `json:"ref_level"`
	Name        string  `json:"name"`
}

// OutputState is the persisted form of one output channel.
type OutputState struct {
	VolumeTenthDB int    `json:"volume_tenth_db"`
	Mute          bool   `json:"mute"`
	Stereo        bool   `json:"stereo"`
	RefLevel      int    `json:"ref_level"`
	Dither        bool   `json:"dither"`
	Name          string `json:"name"`
}

// DeviceConfig holds everything persisted for one attached device
// (spec.md §6: "JSON keyed by device id and timestamp, storing
// per-channel parameters and mixer cells").
type DeviceConfig struct {
	DeviceID  string        `json:"device_id"`
	Timestamp time.Time     `json:"timestamp"`
	Inputs    []InputState  `json:"inputs"`
	Outputs   []OutputState `json:"outputs"`
	Mixer     [][]MixerCell `json:"mixer"`
	DURec     durec.Status  `json:"durec"`
}

// DumpFromModel captures the current Shadow into a DeviceConfig,
// adapted from the teacher's DumpFromDevice (pkg/config/config.go):
// there, register state is read fresh from hardware under a safe
// radio state; here, the Device Model's Shadow already holds the
// up-to-date projection, so the capture is a straight copy taken
// under the Model's exclusive section.
func DumpFromModel(m *devicemodel.Model) *DeviceConfig {
	cfg := &DeviceConfig{
		DeviceID:  m.Descriptor().ID,
		Timestamp: time.Now(),
	}

	m.Lock()
	defer m.Unlock()

	shadow := m.Shadow()
	cfg.Inputs = make([]InputState, len(shadow.Inputs))
	for i, in := range shadow.Inputs {
		cfg.Inputs[i] = InputState{
			GainTenthDB: in.GainTenthDB,
			Phantom48V:  in.Phantom48V,
			HiZ:         in.HiZ,
			Mute:        in.Mute,
			Stereo:      in.Stereo,
			Width:       in.Width,
			RefLevel:    in.RefLevel,
			Name:        in.Name,
		}
	}

	cfg.Outputs = make([]OutputState, len(shadow.Outputs))
	for i, out := range shadow.Outputs {
		cfg.Outputs[i] = OutputState{
			VolumeTenthDB: out.VolumeTenthDB,
			Mute:          out.Mute,
			Stereo:        out.Stereo,
			RefLevel:      out.RefLevel,
			Dither:        out.Dither,
			Name:          out.Name,
		}
	}

	cfg.Mixer = make([][]MixerCell, len(shadow.Mixer))
	for o, row := range shadow.Mixer {
		cfg.Mixer[o] = make([]MixerCell, len(row))
		for i, cell := range row {
			cfg.Mixer[o][i] = MixerCell{VolumeTenthDB: cell.VolumeTenthDB, Pan: cell.Pan}
		}
	}

	cfg.DURec = shadow.DURec

	return cfg
}

// ApplyToModel restores a captured DeviceConfig into the Model's
// Shadow without touching the physical device — the caller is
// expected to follow up with a /refresh (or individual writes) if the
// hardware itself should also be brought in line, per spec.md §6
// treating snapshot load/save as a collaborator concern.
func ApplyToModel(m *devicemodel.Model, cfg *DeviceConfig) {
	m.SetShadowNoNotify(func(s *devicemodel.Shadow) {
		for i := range cfg.Inputs {
			if i >= len(s.Inputs) {
				break
			}
			in := cfg.Inputs[i]
			s.Inputs[i] = devicemodel.InputState{
				GainTenthDB: in.GainTenthDB,
				Phantom48V:  in.Phantom48V,
				HiZ:         in.HiZ,
				Mute:        in.Mute,
				Stereo:      in.Stereo,
				Width:       in.Width,
				RefLevel:    in.RefLevel,
				Name:        in.Name,
			}
		}
		for i := range cfg.Outputs {
			if i >= len(s.Outputs) {
				break
			}
			out := cfg.Outputs[i]
			s.Outputs[i] = devicemodel.OutputState{
				VolumeTenthDB: out.VolumeTenthDB,
				Mute:          out.Mute,
				Stereo:        out.Stereo,
				RefLevel:      out.RefLevel,
				Dither:        out.Dither,
				Name:          out.Name,
			}
		}
		for o := range cfg.Mixer {
			if o >= len(s.Mixer) {
				break
			}
			for i := range cfg.Mixer[o] {
				if i >= len(s.Mixer[o]) {
					break
				}
				s.Mixer[o][i] = devicemodel.MixerCell{
					VolumeTenthDB: cfg.Mixer[o][i].VolumeTenthDB,
					Pan:           cfg.Mixer[o][i].Pan,
				}
			}
		}
		s.DURec = cfg.DURec
	})
}

// SaveToFile writes cfg as indented JSON, creating parent directories
// as needed (adapted from the teacher's pkg/config/storage.go
// SaveToFile).
func SaveToFile(cfg *DeviceConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal device config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

// LoadFromFile is the inverse of SaveToFile.
func LoadFromFile(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	var cfg DeviceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal device config: %w", err)
	}
	return &cfg, nil
}

// PathFor returns the snapshot path for deviceID, matching spec.md
// §6's "<app-data>/OSCMix/device_config/<device>.json" (appData is
// supplied by the collaborator, e.g. os.UserConfigDir()).
func PathFor(appData, deviceID string) string {
	return filepath.Join(appData, "OSCMix", "device_config", fmt.Sprintf("%s.json", deviceID))
}
