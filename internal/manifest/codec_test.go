package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func int64Ptr(v int64) *int64 { return &v }

func newTestRelease() Release {
	return Release{
		Name:        "BthPS3 v2.9.140",
		Version:     MustVersion("2.9.140"),
		Summary:     "Bug fixes",
		PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DownloadURL: "https://github.com/nefarius/BthPS3/releases/download/v2.9.140/BthPS3_x64.exe",
		ExitCode:    DefaultExitCodePolicy(),
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	m := New()
	m.Shared = NewSharedConfig("BthPS3", RegistryValue{
		Hive:  HiveLocalMachine,
		View:  RegistryView64,
		Key:   `SOFTWARE\Nefarius Software Solutions e.U.\BthPS3 Bluetooth Drivers`,
		Value: "Version",
	})
	rel := newTestRelease()
	rel.DownloadSize = int64Ptr(5242880)
	rel.Checksum = &Checksum{Checksum: "d41d8cd98f00b204e9800998ecf8427e", ChecksumAlg: ChecksumMD5}
	m.Releases = append(m.Releases, rel)

	data, err := Encode(m)
	require.NoError(t, err)

	assert.Equal(t, "RegistryValue", gjson.GetBytes(data, "shared.detectionMethod").String())
	assert.Equal(t, "HKLM", gjson.GetBytes(data, "shared.detection.hive").String())
	assert.Equal(t, "2.9.140", gjson.GetBytes(data, "releases.0.version").String())
	assert.Equal(t, int64(5242880), gjson.GetBytes(data, "releases.0.downloadSize").Int())
	assert.Equal(t, "2024-05-01T12:00:00Z", gjson.GetBytes(data, "releases.0.publishedAt").String())
	assert.False(t, gjson.GetBytes(data, "instance").Exists())

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m.Shared.Detection(), decoded.Shared.Detection())
	require.Len(t, decoded.Releases, 1)
	assert.Equal(t, rel.Version, decoded.Releases[0].Version)
	assert.True(t, rel.PublishedAt.Equal(decoded.Releases[0].PublishedAt))
}

func TestEncode_EmptyReleasesAlwaysPresent(t *testing.T) {
	t.Parallel()

	m := &Manifest{Instance: &InstanceConfig{EmergencyURL: "https://docs.nefarius.at/projects/Vicius/"}}

	data, err := Encode(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"instance":{"emergencyUrl":"https://docs.nefarius.at/projects/Vicius/"},"releases":[]}`, string(data))
}

func TestManifest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(m *Manifest)
		errContains string
	}{
		{
			name:   "valid",
			mutate: func(_ *Manifest) {},
		},
		{
			name:        "relative download url",
			mutate:      func(m *Manifest) { m.Releases[0].DownloadURL = "/setup.exe" },
			errContains: "downloadUrl",
		},
		{
			name:        "missing version",
			mutate:      func(m *Manifest) { m.Releases[0].Version = Version{} },
			errContains: "version: required",
		},
		{
			name:        "duplicate success codes",
			mutate:      func(m *Manifest) { m.Releases[0].ExitCode.SuccessCodes = []int{0, 0} },
			errContains: "duplicate code 0",
		},
		{
			name:        "no success codes without skip",
			mutate:      func(m *Manifest) { m.Releases[0].ExitCode.SuccessCodes = nil },
			errContains: "at least one code",
		},
		{
			name: "skip check without codes",
			mutate: func(m *Manifest) {
				m.Releases[0].ExitCode = &ExitCodePolicy{SkipCheck: true}
			},
		},
		{
			name: "checksum length mismatch",
			mutate: func(m *Manifest) {
				m.Releases[0].Checksum = &Checksum{Checksum: "abcd", ChecksumAlg: ChecksumSHA256}
			},
			errContains: "expected 64 hex characters",
		},
		{
			name: "non-hex checksum",
			mutate: func(m *Manifest) {
				m.Releases[0].DetectionChecksum = &Checksum{
					Checksum:    "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
					ChecksumAlg: ChecksumSHA1,
				}
			},
			errContains: "detectionChecksum",
		},
		{
			name: "latest version without url",
			mutate: func(m *Manifest) {
				v := MustVersion("1.0.0")
				m.Instance = &InstanceConfig{LatestVersion: &v}
			},
			errContains: "must be set together",
		},
		{
			name: "invalid zip disposition",
			mutate: func(m *Manifest) {
				m.Releases[0].ZipExtractFileDispositionOverrides = map[string]ZipExtractDisposition{"a.dll": "Overwrite"}
			},
			errContains: "zipExtractFileDispositionOverrides[a.dll]",
		},
		{
			name: "invalid detection",
			mutate: func(m *Manifest) {
				m.Shared = NewSharedConfig("p", RegistryValue{Hive: "HKU", Key: "k", Value: "v"})
			},
			errContains: "shared: detection: hive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := New()
			m.Releases = append(m.Releases, newTestRelease())
			tt.mutate(m)

			err := m.Validate()
			if tt.errContains == "" {
				require.NoError(t, err)
				_, err = Encode(m)
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.errContains)

			_, err = Encode(m)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "empty manifest", doc: `{"releases":[]}`},
		{name: "missing releases", doc: `{}`, wantErr: true},
		{name: "unknown top-level field", doc: `{"releases":[],"extra":1}`, wantErr: true},
		{
			name:    "detection without method",
			doc:     `{"shared":{"detection":{"$type":"FileSize","input":"x"}},"releases":[]}`,
			wantErr: true,
		},
		{
			name:    "unknown detection type",
			doc:     `{"shared":{"detectionMethod":"FileSize","detection":{"$type":"Oracle","input":"x"}},"releases":[]}`,
			wantErr: true,
		},
		{
			name: "fixed version detection",
			doc:  `{"shared":{"detectionMethod":"FixedVersion","detection":{"$type":"FixedVersion","version":"999.0.0"}},"releases":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateDocument([]byte(tt.doc))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecode_FieldNamesAreExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "exact names",
			doc:  `{"releases":[],"instance":{"emergencyUrl":"https://example.com/emergency"}}`,
		},
		{
			name:    "miscased top-level fields",
			doc:     `{"Releases":[],"INSTANCE":{"EmergencyUrl":"https://example.com/emergency"}}`,
			wantErr: true,
		},
		{
			name:    "miscased nested field",
			doc:     `{"releases":[],"instance":{"EmergencyUrl":"https://example.com/emergency"}}`,
			wantErr: true,
		},
		{
			name:    "miscased detection field",
			doc:     `{"releases":[],"shared":{"detectionMethod":"FileSize","detection":{"$type":"FileSize","Input":"x"}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Decode([]byte(tt.doc))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/emergency", m.Instance.EmergencyURL)
		})
	}
}

func TestManifest_Latest(t *testing.T) {
	t.Parallel()

	m := New()
	_, ok := m.Latest()
	assert.False(t, ok)

	older := newTestRelease()
	older.Version = MustVersion("1.0.0")
	newer := newTestRelease()
	newer.Version = MustVersion("1.2.0")
	disabled := newTestRelease()
	disabled.Version = MustVersion("9.0.0")
	disabled.Disabled = true
	m.Releases = []Release{older, disabled, newer}

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, "1.2.0", latest.Version.String())
}
