package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrValidation is returned when a manifest or one of its parts violates the wire contract.
var ErrValidation = errors.New("manifest validation failed")

// Validate checks the structural rules of the manifest. It does not
// consult the JSON schema; Encode does both.
func (m *Manifest) Validate() error {
	var errs []error

	if m.Instance != nil {
		if err := m.Instance.validate(); err != nil {
			errs = append(errs, fmt.Errorf("instance: %w", err))
		}
	}
	if m.Shared != nil {
		if err := m.Shared.validate(); err != nil {
			errs = append(errs, fmt.Errorf("shared: %w", err))
		}
	}
	for i := range m.Releases {
		if err := m.Releases[i].validate(); err != nil {
			errs = append(errs, fmt.Errorf("releases[%d]: %w", i, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func (c *InstanceConfig) validate() error {
	var errs []error
	for _, field := range []struct{ name, value string }{
		{"latestUrl", c.LatestURL},
		{"emergencyUrl", c.EmergencyURL},
		{"helpUrl", c.HelpURL},
		{"errorFallbackUrl", c.ErrorFallbackURL},
	} {
		if field.value == "" {
			continue
		}
		if err := validateURL(field.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		}
	}
	if c.LatestVersion != nil && c.LatestVersion.IsZero() {
		errs = append(errs, errors.New("latestVersion: empty version"))
	}
	if (c.LatestVersion == nil) != (c.LatestURL == "") {
		errs = append(errs, errors.New("latestVersion and latestUrl must be set together"))
	}
	if c.ExitCode != nil {
		if err := c.ExitCode.validate(); err != nil {
			errs = append(errs, fmt.Errorf("exitCode: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *SharedConfig) validate() error {
	var errs []error
	if s.detection != nil {
		if err := s.detection.validate(); err != nil {
			errs = append(errs, fmt.Errorf("detection: %w", err))
		}
	}
	if s.InstallationErrorURL != "" {
		if err := validateURL(s.InstallationErrorURL); err != nil {
			errs = append(errs, fmt.Errorf("installationErrorUrl: %w", err))
		}
	}
	if s.DownloadLocation != nil && s.DownloadLocation.Input == "" {
		errs = append(errs, errors.New("downloadLocation.input: required"))
	}
	return errors.Join(errs...)
}

func (r *Release) validate() error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("name: required"))
	}
	if r.Version.IsZero() {
		errs = append(errs, errors.New("version: required"))
	}
	if r.PublishedAt.IsZero() {
		errs = append(errs, errors.New("publishedAt: required"))
	}
	if err := validateURL(r.DownloadURL); err != nil {
		errs = append(errs, fmt.Errorf("downloadUrl: %w", err))
	}
	if r.DownloadSize != nil && *r.DownloadSize < 0 {
		errs = append(errs, errors.New("downloadSize: must not be negative"))
	}
	if r.DetectionSize != nil && *r.DetectionSize < 0 {
		errs = append(errs, errors.New("detectionSize: must not be negative"))
	}
	if r.DetectionVersion != nil && r.DetectionVersion.IsZero() {
		errs = append(errs, errors.New("detectionVersion: empty version"))
	}
	if r.ExitCode != nil {
		if err := r.ExitCode.validate(); err != nil {
			errs = append(errs, fmt.Errorf("exitCode: %w", err))
		}
	}
	if r.Checksum != nil {
		if err := r.Checksum.validate(); err != nil {
			errs = append(errs, fmt.Errorf("checksum: %w", err))
		}
	}
	if r.DetectionChecksum != nil {
		if err := r.DetectionChecksum.validate(); err != nil {
			errs = append(errs, fmt.Errorf("detectionChecksum: %w", err))
		}
	}
	if r.ZipExtractDefaultFileDisposition != "" && !r.ZipExtractDefaultFileDisposition.IsValid() {
		errs = append(errs, fmt.Errorf("zipExtractDefaultFileDisposition: invalid value %q",
			r.ZipExtractDefaultFileDisposition))
	}
	for file, d := range r.ZipExtractFileDispositionOverrides {
		if file == "" {
			errs = append(errs, errors.New("zipExtractFileDispositionOverrides: empty file name"))
		}
		if !d.IsValid() {
			errs = append(errs, fmt.Errorf("zipExtractFileDispositionOverrides[%s]: invalid value %q", file, d))
		}
	}
	return errors.Join(errs...)
}

func (p *ExitCodePolicy) validate() error {
	if !p.SkipCheck && len(p.SuccessCodes) == 0 {
		return errors.New("successCodes: at least one code is required unless skipCheck is set")
	}
	seen := make(map[int]struct{}, len(p.SuccessCodes))
	for _, code := range p.SuccessCodes {
		if _, ok := seen[code]; ok {
			return fmt.Errorf("successCodes: duplicate code %d", code)
		}
		seen[code] = struct{}{}
	}
	return nil
}

func (c *Checksum) validate() error {
	n := c.ChecksumAlg.HexLength()
	if n == 0 {
		return fmt.Errorf("checksumAlg: invalid value %q", c.ChecksumAlg)
	}
	if len(c.Checksum) != n || strings.Trim(strings.ToLower(c.Checksum), "0123456789abcdef") != "" {
		return fmt.Errorf("checksum: expected %d hex characters for %s", n, c.ChecksumAlg)
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
