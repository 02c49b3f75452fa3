package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DetectionMethod is the discriminant of a Detection. On the wire it is
// both the "$type" of the detection object and the sibling "detectionMethod".
type DetectionMethod string

// Detection methods understood by the client
const (
	MethodRegistryValue    DetectionMethod = "RegistryValue"
	MethodFileVersion      DetectionMethod = "FileVersion"
	MethodFileSize         DetectionMethod = "FileSize"
	MethodFileChecksum     DetectionMethod = "FileChecksum"
	MethodCustomExpression DetectionMethod = "CustomExpression"
	MethodFixedVersion     DetectionMethod = "FixedVersion"
)

// TypeField is the name of the discriminator inside an encoded detection object.
const TypeField = "$type"

// Detection is a strategy the client uses to find the installed product version.
// The set of implementations is closed to this package.
type Detection interface {
	Method() DetectionMethod
	validate() error
}

// RegistryValue reads the installed version from a registry value.
type RegistryValue struct {
	Hive  RegistryHive
	View  RegistryView
	Key   string
	Value string
}

// FileVersion reads a version resource from a file.
type FileVersion struct {
	Input     string
	Statement VersionResource
	Data      TemplateData
}

// FileSize compares the size of a file with the release's detectionSize.
type FileSize struct {
	Input string
	Data  TemplateData
}

// FileChecksum compares the hash of a file with the release's detectionChecksum.
type FileChecksum struct {
	Input string
	Data  TemplateData
}

// CustomExpression evaluates a client-side template expression to a boolean.
type CustomExpression struct {
	Input string
	Data  TemplateData
}

// FixedVersion reports a constant installed version.
type FixedVersion struct {
	Version Version
}

// Method implements Detection.
func (RegistryValue) Method() DetectionMethod { return MethodRegistryValue }

// Method implements Detection.
func (FileVersion) Method() DetectionMethod { return MethodFileVersion }

// Method implements Detection.
func (FileSize) Method() DetectionMethod { return MethodFileSize }

// Method implements Detection.
func (FileChecksum) Method() DetectionMethod { return MethodFileChecksum }

// Method implements Detection.
func (CustomExpression) Method() DetectionMethod { return MethodCustomExpression }

// Method implements Detection.
func (FixedVersion) Method() DetectionMethod { return MethodFixedVersion }

func (d RegistryValue) validate() error {
	var errs []error
	if !d.Hive.IsValid() {
		errs = append(errs, fmt.Errorf("hive: invalid value %q", d.Hive))
	}
	if !d.View.IsValid() {
		errs = append(errs, fmt.Errorf("view: invalid value %q", d.View))
	}
	if d.Key == "" {
		errs = append(errs, errors.New("key: required"))
	}
	if d.Value == "" {
		errs = append(errs, errors.New("value: required"))
	}
	return errors.Join(errs...)
}

func (d FileVersion) validate() error {
	var errs []error
	if d.Input == "" {
		errs = append(errs, errors.New("input: required"))
	}
	if !d.Statement.IsValid() {
		errs = append(errs, fmt.Errorf("statement: invalid value %q", d.Statement))
	}
	return errors.Join(errs...)
}

func (d FileSize) validate() error         { return requireInput(d.Input) }
func (d FileChecksum) validate() error     { return requireInput(d.Input) }
func (d CustomExpression) validate() error { return requireInput(d.Input) }

func (d FixedVersion) validate() error {
	if d.Version.IsZero() {
		return errors.New("version: required")
	}
	return nil
}

func requireInput(input string) error {
	if input == "" {
		return errors.New("input: required")
	}
	return nil
}

// ValidateDetection checks the fields of d against its variant's constraints.
func ValidateDetection(d Detection) error {
	if d == nil {
		return fmt.Errorf("%w: detection is nil", ErrValidation)
	}
	if err := d.validate(); err != nil {
		return fmt.Errorf("%w: %s detection: %w", ErrValidation, d.Method(), err)
	}
	return nil
}

type registryValueJSON struct {
	Type  DetectionMethod `json:"$type"`
	Hive  RegistryHive    `json:"hive"`
	View  RegistryView    `json:"view,omitempty"`
	Key   string          `json:"key"`
	Value string          `json:"value"`
}

type fileVersionJSON struct {
	Type      DetectionMethod `json:"$type"`
	Input     string          `json:"input"`
	Statement VersionResource `json:"statement,omitempty"`
	Data      *TemplateData   `json:"data,omitempty"`
}

type inputJSON struct {
	Type  DetectionMethod `json:"$type"`
	Input string          `json:"input"`
	Data  *TemplateData   `json:"data,omitempty"`
}

type fixedVersionJSON struct {
	Type    DetectionMethod `json:"$type"`
	Version Version         `json:"version"`
}

// MarshalJSON implements json.Marshaler.
func (d RegistryValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(registryValueJSON{
		Type: d.Method(), Hive: d.Hive, View: d.View, Key: d.Key, Value: d.Value,
	})
}

// MarshalJSON implements json.Marshaler.
func (d FileVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileVersionJSON{
		Type: d.Method(), Input: d.Input, Statement: d.Statement, Data: wireData(d.Data),
	})
}

// MarshalJSON implements json.Marshaler.
func (d FileSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputJSON{Type: d.Method(), Input: d.Input, Data: wireData(d.Data)})
}

// MarshalJSON implements json.Marshaler.
func (d FileChecksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputJSON{Type: d.Method(), Input: d.Input, Data: wireData(d.Data)})
}

// MarshalJSON implements json.Marshaler.
func (d CustomExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputJSON{Type: d.Method(), Input: d.Input, Data: wireData(d.Data)})
}

// MarshalJSON implements json.Marshaler.
func (d FixedVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(fixedVersionJSON{Type: d.Method(), Version: d.Version})
}

// EncodeDetection encodes d as a "$type"-discriminated JSON object.
func EncodeDetection(d Detection) ([]byte, error) {
	if err := ValidateDetection(d); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// DecodeDetection decodes a "$type"-discriminated JSON object. Unknown or
// missing discriminators, unknown or miscased fields and missing required
// fields are rejected with an error wrapping ErrValidation.
func DecodeDetection(data []byte) (Detection, error) {
	var head struct {
		Type *DetectionMethod `json:"$type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: detection: %w", ErrValidation, err)
	}
	if head.Type == nil {
		return nil, fmt.Errorf("%w: detection: missing %s discriminator", ErrValidation, TypeField)
	}

	var (
		d   Detection
		err error
	)
	switch *head.Type {
	case MethodRegistryValue:
		var w registryValueJSON
		if err = decodeStrict(data, &w); err == nil {
			d = RegistryValue{Hive: w.Hive, View: w.View, Key: w.Key, Value: w.Value}
		}
	case MethodFileVersion:
		var w fileVersionJSON
		if err = decodeStrict(data, &w); err == nil {
			d = FileVersion{Input: w.Input, Statement: w.Statement, Data: fromWireData(w.Data)}
		}
	case MethodFileSize:
		var w inputJSON
		if err = decodeStrict(data, &w); err == nil {
			d = FileSize{Input: w.Input, Data: fromWireData(w.Data)}
		}
	case MethodFileChecksum:
		var w inputJSON
		if err = decodeStrict(data, &w); err == nil {
			d = FileChecksum{Input: w.Input, Data: fromWireData(w.Data)}
		}
	case MethodCustomExpression:
		var w inputJSON
		if err = decodeStrict(data, &w); err == nil {
			d = CustomExpression{Input: w.Input, Data: fromWireData(w.Data)}
		}
	case MethodFixedVersion:
		var w fixedVersionJSON
		if err = decodeStrict(data, &w); err == nil {
			d = FixedVersion{Version: w.Version}
		}
	default:
		return nil, fmt.Errorf("%w: detection: unknown %s %q", ErrValidation, TypeField, *head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s detection: %w", ErrValidation, *head.Type, err)
	}

	if err := ValidateDetection(d); err != nil {
		return nil, err
	}
	return d, nil
}

// decodeStrict decodes a flat JSON object into the struct pointed to by v.
// Keys must match the json tags of v exactly.
func decodeStrict(data []byte, v any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := jsonFieldNames(reflect.TypeOf(v).Elem())
	for key := range raw {
		if !known[key] {
			return fmt.Errorf("json: unknown field %q", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names[name] = true
		}
	}
	return names
}
