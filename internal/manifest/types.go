package manifest

// RegistryHive names the registry root a RegistryValue detection reads from.
type RegistryHive string

// Supported registry hives
const (
	HiveCurrentUser  RegistryHive = "HKCU"
	HiveLocalMachine RegistryHive = "HKLM"
	HiveClassesRoot  RegistryHive = "HKCR"
)

// IsValid reports whether h is a known hive.
func (h RegistryHive) IsValid() bool {
	switch h {
	case HiveCurrentUser, HiveLocalMachine, HiveClassesRoot:
		return true
	}
	return false
}

// RegistryView selects the registry view on 64-bit Windows. Empty means RegistryViewDefault.
type RegistryView string

// Supported registry views
const (
	RegistryViewDefault RegistryView = "Default"
	RegistryView64      RegistryView = "WOW64_64KEY"
	RegistryView32      RegistryView = "WOW64_32KEY"
)

// IsValid reports whether v is empty or a known view.
func (v RegistryView) IsValid() bool {
	switch v {
	case "", RegistryViewDefault, RegistryView64, RegistryView32:
		return true
	}
	return false
}

// VersionResource selects which version resource of a PE file is read.
// Empty means VersionResourceProduct.
type VersionResource string

// Supported version resources
const (
	VersionResourceFile    VersionResource = "FILEVERSION"
	VersionResourceProduct VersionResource = "PRODUCTVERSION"
)

// IsValid reports whether r is empty or a known resource.
func (r VersionResource) IsValid() bool {
	switch r {
	case "", VersionResourceFile, VersionResourceProduct:
		return true
	}
	return false
}

// ChecksumAlgorithm is a hash algorithm understood by the client.
type ChecksumAlgorithm string

// Supported checksum algorithms
const (
	ChecksumMD5    ChecksumAlgorithm = "MD5"
	ChecksumSHA1   ChecksumAlgorithm = "SHA1"
	ChecksumSHA256 ChecksumAlgorithm = "SHA256"
)

// HexLength returns the length of a hex encoded digest, or 0 for unknown algorithms.
func (a ChecksumAlgorithm) HexLength() int {
	switch a {
	case ChecksumMD5:
		return 32
	case ChecksumSHA1:
		return 40
	case ChecksumSHA256:
		return 64
	}
	return 0
}

// ZipExtractDisposition tells the client how to treat a file when extracting a ZIP release.
type ZipExtractDisposition string

// Supported dispositions
const (
	ZipCreateIfAbsent  ZipExtractDisposition = "CreateIfAbsent"
	ZipCreateOrReplace ZipExtractDisposition = "CreateOrReplace"
	ZipDeleteIfPresent ZipExtractDisposition = "DeleteIfPresent"
)

// IsValid reports whether d is a known disposition.
func (d ZipExtractDisposition) IsValid() bool {
	switch d {
	case ZipCreateIfAbsent, ZipCreateOrReplace, ZipDeleteIfPresent:
		return true
	}
	return false
}

// TemplateData holds named values referenced by inja templates in client-side inputs.
type TemplateData map[string]string

// wireData keeps a nil map absent on the wire and an empty map as {}.
func wireData(d TemplateData) *TemplateData {
	if d == nil {
		return nil
	}
	return &d
}

func fromWireData(d *TemplateData) TemplateData {
	if d == nil {
		return nil
	}
	return *d
}
