package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errMissing   = errors.New("required field is missing")
	errEmpty     = errors.New("required field is empty")
	errNotString = errors.New("expected a string")
	errNotObject = errors.New("expected an object")
)

// Result holds the records decoded from a collection document together with a
// diagnostic for every element that could not be decoded. Records keep the
// order of the source document.
type Result[T any] struct {
	Records []T
	Issues  []*DecodeError
}

// DecodeDevices decodes a device collection. The envelope must be a JSON array;
// a malformed envelope fails the whole document. Malformed elements are skipped
// and reported in Result.Issues.
func DecodeDevices(document string, data []byte) (Result[DeviceRecord], error) {
	return decodeCollection(document, data, decodeDevice)
}

// DecodeFirmware decodes a firmware collection with the same isolation rules as DecodeDevices.
func DecodeFirmware(document string, data []byte) (Result[FirmwareRecord], error) {
	return decodeCollection(document, data, decodeFirmware)
}

// DecodeDevice decodes a single device document such as device/{key}.json.
func DecodeDevice(document string, data []byte) (DeviceRecord, error) {
	rec, derr := decodeDevice(data)
	if derr != nil {
		derr.Document = document
		derr.Index = -1
		derr.Raw = data
		return DeviceRecord{}, derr
	}
	return rec, nil
}

// DecodeIndex decodes a key index document: a JSON array of strings.
func DecodeIndex(document string, data []byte) ([]string, error) {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, &DecodeError{Document: document, Index: -1, Err: err}
	}
	return keys, nil
}

func decodeCollection[T any](document string, data []byte, decode func([]byte) (T, *DecodeError)) (Result[T], error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return Result[T]{}, &DecodeError{Document: document, Index: -1, Err: err}
	}

	res := Result[T]{Records: make([]T, 0, len(elements))}
	for i, raw := range elements {
		rec, derr := decode(raw)
		if derr != nil {
			derr.Document = document
			derr.Index = i
			derr.Raw = raw
			res.Issues = append(res.Issues, derr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func decodeDevice(raw []byte) (DeviceRecord, *DecodeError) {
	fields, err := objectFields(raw)
	if err != nil {
		return DeviceRecord{}, &DecodeError{Err: err}
	}

	// key first so later failures can name the element
	key, err := requiredString(fields, "key")
	if err != nil {
		return DeviceRecord{}, &DecodeError{Field: "key", Err: err}
	}
	name, err := requiredString(fields, "name")
	if err != nil {
		return DeviceRecord{}, &DecodeError{Key: key, Field: "name", Err: err}
	}

	rec := DeviceRecord{
		Name:       name,
		Key:        key,
		Identifier: optionalMulti(fields, "identifier"),
		Board:      optionalMulti(fields, "board"),
		Model:      optionalMulti(fields, "model"),
		Type:       optionalString(fields, "type"),
		Arch:       optionalString(fields, "arch"),
		BDID:       optionalString(fields, "bdid"),
		SoC:        optionalMulti(fields, "soc"),
		CPID:       optionalMulti(fields, "cpid"),
		Released:   optionalMulti(fields, "released"),
	}
	rec.Category = ParseCategory(rec.Type)

	info, derr := decodeInfo(fields["info"])
	if derr != nil {
		derr.Key = key
		return DeviceRecord{}, derr
	}
	rec.Info = info
	return rec, nil
}

func decodeInfo(raw json.RawMessage) ([]MemoryVariant, *DecodeError) {
	if isAbsent(raw) {
		return nil, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		// a non-array info block carries nothing we can show
		return nil, nil
	}

	variants := make([]MemoryVariant, 0, len(elements))
	for i, el := range elements {
		fields, err := objectFields(el)
		if err != nil {
			return nil, &DecodeError{Field: fmt.Sprintf("info[%d]", i), Err: err}
		}
		typ, err := requiredString(fields, "type")
		if err != nil {
			return nil, &DecodeError{Field: fmt.Sprintf("info[%d].type", i), Err: err}
		}
		variants = append(variants, MemoryVariant{
			Type:    typ,
			Storage: optionalMulti(fields, "Storage"),
			RAM:     optionalMulti(fields, "RAM"),
		})
	}
	return variants, nil
}

func decodeFirmware(raw []byte) (FirmwareRecord, *DecodeError) {
	fields, err := objectFields(raw)
	if err != nil {
		return FirmwareRecord{}, &DecodeError{Err: err}
	}

	key, err := requiredString(fields, "key")
	if err != nil {
		return FirmwareRecord{}, &DecodeError{Field: "key", Err: err}
	}
	osStr, err := requiredString(fields, "osStr")
	if err != nil {
		return FirmwareRecord{}, &DecodeError{Key: key, Field: "osStr", Err: err}
	}
	ver, err := requiredString(fields, "version")
	if err != nil {
		return FirmwareRecord{}, &DecodeError{Key: key, Field: "version", Err: err}
	}

	return FirmwareRecord{
		OSStr:        osStr,
		Version:      ver,
		Key:          key,
		Build:        optionalString(fields, "build"),
		Released:     optionalMulti(fields, "released").String(),
		DeviceMap:    optionalMulti(fields, "deviceMap"),
		ReferenceURL: optionalString(fields, "appledburl"),
		Beta:         optionalBool(fields, "beta"),
		RC:           optionalBool(fields, "rc"),
		Internal:     optionalBool(fields, "internal"),
	}, nil
}

func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, errNotObject
	}
	return fields, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func requiredString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isAbsent(raw) {
		return "", errMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errNotString
	}
	if s == "" {
		return "", errEmpty
	}
	return s, nil
}

// optionalString returns "" when the field is absent or not a string.
func optionalString(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok || isAbsent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// optionalMulti returns nil when the field is absent or neither a string nor an array of strings.
func optionalMulti(fields map[string]json.RawMessage, name string) MultiString {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var m MultiString
	if err := m.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return m
}

func optionalBool(fields map[string]json.RawMessage, name string) bool {
	raw, ok := fields[name]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}
