package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// KindTag identifies the wire type of a Tagged body: the journal's
// EventType variants and the sync package's envelope/oplog message
// types all get a stable tag assigned here.
type KindTag uint32

// ErrUnknownKindTag names the error for a Tagged whose kind_tag has no
// registered decoder. This package keeps no decoder registry and
// DecodeTagged does not check the tag, so nothing here returns it.
var ErrUnknownKindTag = errors.New("codec: unknown kind tag")

// ErrUnsupportedVersion is returned when a Tagged's version field isn't
// one this build's parser recognises.
var ErrUnsupportedVersion = errors.New("codec: unsupported version")

// EncodeTagged serialises a versioned, tagged, canonically-JSON-encoded
// body: [version: u32][kind_tag: u32][body bytes]. This is the wire
// format spec.md §6 mandates for persisted events.
func EncodeTagged(version uint32, tag KindTag, body interface{}) ([]byte, error) {
	payload, err := Codec.Marshal(CurrentVersion, body)
	if err != nil {
		return nil, fmt.Errorf("codec: encode tagged body: %w", err)
	}
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], version)
	binary.BigEndian.PutUint32(buf[4:8], uint32(tag))
	copy(buf[8:], payload)
	return buf, nil
}

// DecodeTaggedHeader reads the version and kind tag without touching the
// body, so callers can dispatch to the right concrete type before
// unmarshaling.
func DecodeTaggedHeader(data []byte) (version uint32, tag KindTag, body []byte, err error) {
	if len(data) < 8 {
		return 0, 0, nil, fmt.Errorf("codec: tagged frame too short: %d bytes", len(data))
	}
	version = binary.BigEndian.Uint32(data[0:4])
	tag = KindTag(binary.BigEndian.Uint32(data[4:8]))
	body = data[8:]
	return version, tag, body, nil
}

// DecodeTagged decodes a Tagged frame into dst, checking that version is
// one of the supported versions and returning ErrUnsupportedVersion
// otherwise.
func DecodeTagged(data []byte, supportedVersions []uint32, dst interface{}) (KindTag, error) {
	version, tag, body, err := DecodeTaggedHeader(data)
	if err != nil {
		return 0, err
	}
	supported := false
	for _, v := range supportedVersions {
		if v == version {
			supported = true
			break
		}
	}
	if !supported {
		return tag, ErrUnsupportedVersion
	}
	if _, err := Codec.Unmarshal(body, dst); err != nil {
		return tag, fmt.Errorf("codec: decode tagged body: %w", err)
	}
	return tag, nil
}
