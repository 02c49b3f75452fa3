// Package manifest contains the update manifest model served to updater
// clients, together with its JSON encoding and validation rules.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExitCodePolicy describes which setup exit codes count as success.
type ExitCodePolicy struct {
	SkipCheck    bool  `json:"skipCheck"`
	SuccessCodes []int `json:"successCodes"`
}

// DefaultExitCodePolicy accepts 0 and 3010 (success, reboot required).
func DefaultExitCodePolicy() *ExitCodePolicy {
	return &ExitCodePolicy{SuccessCodes: []int{0, 3010}}
}

// Checksum is a hex digest and the algorithm that produced it.
type Checksum struct {
	Checksum    string            `json:"checksum"`
	ChecksumAlg ChecksumAlgorithm `json:"checksumAlg"`
}

// DownloadLocation overrides where the client stores downloaded setups.
type DownloadLocation struct {
	Input string
	Data  TemplateData
}

type downloadLocationJSON struct {
	Input string        `json:"input"`
	Data  *TemplateData `json:"data,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l DownloadLocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(downloadLocationJSON{Input: l.Input, Data: wireData(l.Data)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *DownloadLocation) UnmarshalJSON(data []byte) error {
	var w downloadLocationJSON
	if err := decodeStrict(data, &w); err != nil {
		return err
	}
	*l = DownloadLocation{Input: w.Input, Data: fromWireData(w.Data)}
	return nil
}

// InstanceConfig holds settings for the updater executable itself.
type InstanceConfig struct {
	UpdatesDisabled  bool            `json:"updatesDisabled,omitempty"`
	LatestVersion    *Version        `json:"latestVersion,omitempty"`
	LatestURL        string          `json:"latestUrl,omitempty"`
	EmergencyURL     string          `json:"emergencyUrl,omitempty"`
	ExitCode         *ExitCodePolicy `json:"exitCode,omitempty"`
	HelpURL          string          `json:"helpUrl,omitempty"`
	ErrorFallbackURL string          `json:"errorFallbackUrl,omitempty"`
}

// SharedConfig holds settings that the server may override in the local client configuration.
// The detection method is always derived from the detection strategy.
type SharedConfig struct {
	WindowTitle          string
	ProductName          string
	RunAsTemporaryCopy   bool
	InstallationErrorURL string
	DownloadLocation     *DownloadLocation

	detection Detection
}

// NewSharedConfig returns a shared configuration using detection d.
func NewSharedConfig(productName string, d Detection) *SharedConfig {
	return &SharedConfig{ProductName: productName, detection: d}
}

// Detection returns the detection strategy, or nil when none is set.
func (s *SharedConfig) Detection() Detection {
	return s.detection
}

// DetectionMethod returns the discriminant of the current detection strategy.
func (s *SharedConfig) DetectionMethod() DetectionMethod {
	if s.detection == nil {
		return ""
	}
	return s.detection.Method()
}

// SetDetection replaces the detection strategy. Passing nil clears it.
func (s *SharedConfig) SetDetection(d Detection) {
	s.detection = d
}

type sharedConfigJSON struct {
	WindowTitle          string            `json:"windowTitle,omitempty"`
	ProductName          string            `json:"productName,omitempty"`
	DetectionMethod      DetectionMethod   `json:"detectionMethod,omitempty"`
	Detection            json.RawMessage   `json:"detection,omitempty"`
	RunAsTemporaryCopy   bool              `json:"runAsTemporaryCopy,omitempty"`
	InstallationErrorURL string            `json:"installationErrorUrl,omitempty"`
	DownloadLocation     *DownloadLocation `json:"downloadLocation,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s SharedConfig) MarshalJSON() ([]byte, error) {
	w := sharedConfigJSON{
		WindowTitle:          s.WindowTitle,
		ProductName:          s.ProductName,
		RunAsTemporaryCopy:   s.RunAsTemporaryCopy,
		InstallationErrorURL: s.InstallationErrorURL,
		DownloadLocation:     s.DownloadLocation,
	}
	if s.detection != nil {
		raw, err := EncodeDetection(s.detection)
		if err != nil {
			return nil, err
		}
		w.DetectionMethod = s.detection.Method()
		w.Detection = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SharedConfig) UnmarshalJSON(data []byte) error {
	var w sharedConfigJSON
	if err := decodeStrict(data, &w); err != nil {
		return err
	}

	out := SharedConfig{
		WindowTitle:          w.WindowTitle,
		ProductName:          w.ProductName,
		RunAsTemporaryCopy:   w.RunAsTemporaryCopy,
		InstallationErrorURL: w.InstallationErrorURL,
		DownloadLocation:     w.DownloadLocation,
	}

	hasDetection := len(w.Detection) > 0 && string(w.Detection) != "null"
	switch {
	case hasDetection:
		d, err := DecodeDetection(w.Detection)
		if err != nil {
			return err
		}
		if w.DetectionMethod != "" && w.DetectionMethod != d.Method() {
			return fmt.Errorf("%w: detectionMethod %q disagrees with detection %s %q",
				ErrValidation, w.DetectionMethod, TypeField, d.Method())
		}
		out.detection = d
	case w.DetectionMethod != "":
		return fmt.Errorf("%w: detectionMethod %q set without detection", ErrValidation, w.DetectionMethod)
	}

	*s = out
	return nil
}

// Release describes one installable product release.
type Release struct {
	Name            string          `json:"name"`
	Version         Version         `json:"version"`
	Summary         string          `json:"summary"`
	PublishedAt     time.Time       `json:"publishedAt"`
	DownloadURL     string          `json:"downloadUrl"`
	DownloadSize    *int64          `json:"downloadSize,omitempty"`
	LaunchArguments string          `json:"launchArguments,omitempty"`
	ExitCode        *ExitCodePolicy `json:"exitCode,omitempty"`
	Checksum        *Checksum       `json:"checksum,omitempty"`
	Disabled        bool            `json:"disabled,omitempty"`

	DetectionChecksum *Checksum `json:"detectionChecksum,omitempty"`
	DetectionSize     *int64    `json:"detectionSize,omitempty"`
	DetectionVersion  *Version  `json:"detectionVersion,omitempty"`

	ZipExtractDefaultFileDisposition   ZipExtractDisposition            `json:"zipExtractDefaultFileDisposition,omitempty"`
	ZipExtractFileDispositionOverrides map[string]ZipExtractDisposition `json:"zipExtractFileDispositionOverrides,omitempty"`
}

// Manifest is the document served at an updates.json endpoint.
type Manifest struct {
	Instance *InstanceConfig `json:"instance,omitempty"`
	Shared   *SharedConfig   `json:"shared,omitempty"`
	Releases []Release       `json:"releases"`
}

// New returns an empty manifest whose releases encode as an empty array.
func New() *Manifest {
	return &Manifest{Releases: []Release{}}
}

// Latest returns the enabled release with the highest version, if any.
func (m *Manifest) Latest() (Release, bool) {
	var (
		latest Release
		found  bool
	)
	for _, r := range m.Releases {
		if r.Disabled {
			continue
		}
		if !found || r.Version.Compare(latest.Version) > 0 {
			latest, found = r, true
		}
	}
	return latest, found
}
