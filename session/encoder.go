package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Limits of the persisted formats. Longer fields or lists cannot be encoded.
const (
	MaxFieldLen = math.MaxUint16
	MaxListLen  = math.MaxUint16
)

const (
	idListFormatVersionCurrent = 1
	listFormatVersionCurrent   = 1
)

const (
	fieldVersion byte = 1 << iota
	fieldDappName
	fieldDappImageURL
	fieldDappURL
)

var (
	errUnsupportedVersion = errors.New("unsupported session list format version")
	errStringTooLong      = errors.New("session field too long")
	errListTooLong        = errors.New("session list too long")
	errTrailingBytes      = errors.New("trailing bytes after session list")
)

// IDListCodec encodes the identifier list of the separated layout.
type IDListCodec struct{}

// Encode implements storage.Codec.
func (IDListCodec) Encode(ids []string) ([]byte, error) {
	return EncodeIDs(ids)
}

// Decode implements storage.Codec.
func (IDListCodec) Decode(data []byte) ([]string, error) {
	return DecodeIDs(data)
}

// ListCodec encodes the full session list of the unified layout.
type ListCodec struct{}

// Encode implements storage.Codec.
func (ListCodec) Encode(sessions []Session) ([]byte, error) {
	return EncodeList(sessions)
}

// Decode implements storage.Codec.
func (ListCodec) Decode(data []byte) ([]Session, error) {
	return DecodeList(data)
}

// EncodeIDs serializes an identifier list.
func EncodeIDs(ids []string) ([]byte, error) {
	if len(ids) > MaxListLen {
		return nil, errListTooLong
	}

	var buf bytes.Buffer
	buf.WriteByte(idListFormatVersionCurrent)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(ids))); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := writeString(&buf, id); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeIDs parses the output of [EncodeIDs].
func DecodeIDs(data []byte) ([]string, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != idListFormatVersionCurrent {
		return nil, errUnsupportedVersion
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	ids := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := readString(reader)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if reader.Len() != 0 {
		return nil, errTrailingBytes
	}
	return ids, nil
}

// EncodeList serializes a session list including secrets.
func EncodeList(sessions []Session) ([]byte, error) {
	if len(sessions) > MaxListLen {
		return nil, errListTooLong
	}

	var buf bytes.Buffer
	buf.WriteByte(listFormatVersionCurrent)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(sessions))); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		var flags byte
		if s.Version != "" {
			flags |= fieldVersion
		}
		if s.DappName != "" {
			flags |= fieldDappName
		}
		if s.DappImageURL != "" {
			flags |= fieldDappImageURL
		}
		if s.DappURL != "" {
			flags |= fieldDappURL
		}
		buf.WriteByte(flags)

		for _, v := range []string{s.ID, s.Secret, s.URL} {
			if err := writeString(&buf, v); err != nil {
				return nil, err
			}
		}
		optional := []struct {
			flag  byte
			value string
		}{
			{fieldVersion, s.Version},
			{fieldDappName, s.DappName},
			{fieldDappImageURL, s.DappImageURL},
			{fieldDappURL, s.DappURL},
		}
		for _, f := range optional {
			if flags&f.flag == 0 {
				continue
			}
			if err := writeString(&buf, f.value); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// DecodeList parses the output of [EncodeList].
func DecodeList(data []byte) ([]Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != listFormatVersionCurrent {
		return nil, errUnsupportedVersion
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, count)
	for i := 0; i < int(count); i++ {
		flags, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}

		var s Session
		if s.ID, err = readString(reader); err != nil {
			return nil, err
		}
		if s.Secret, err = readString(reader); err != nil {
			return nil, err
		}
		if s.URL, err = readString(reader); err != nil {
			return nil, err
		}
		if flags&fieldVersion != 0 {
			if s.Version, err = readString(reader); err != nil {
				return nil, err
			}
		}
		if flags&fieldDappName != 0 {
			if s.DappName, err = readString(reader); err != nil {
				return nil, err
			}
		}
		if flags&fieldDappImageURL != 0 {
			if s.DappImageURL, err = readString(reader); err != nil {
				return nil, err
			}
		}
		if flags&fieldDappURL != 0 {
			if s.DappURL, err = readString(reader); err != nil {
				return nil, err
			}
		}

		sessions = append(sessions, s)
	}

	if reader.Len() != 0 {
		return nil, errTrailingBytes
	}
	return sessions, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > MaxFieldLen {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int(n) > reader.Len() {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}
