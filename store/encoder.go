package store

import (
	"bytes"
	"errors"
	"io"
)

const snapshotFormatVersionCurrent = 1

func encodeSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(snapshotFormatVersionCurrent)

	for _, field := range []string{s.UserID, s.Identifier, s.Email, s.Role} {
		if len(field) > 255 {
			return nil, errors.New("snapshot field too long")
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}

	buf.WriteByte(s.Status)
	if s.MustChangePassword {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return s, ErrCorruptRecord
	}
	if version != snapshotFormatVersionCurrent {
		return s, ErrCorruptRecord
	}

	fields := make([]string, 4)
	for i := range fields {
		n, err := reader.ReadByte()
		if err != nil {
			return s, ErrCorruptRecord
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return s, ErrCorruptRecord
		}
		fields[i] = string(raw)
	}
	s.UserID, s.Identifier, s.Email, s.Role = fields[0], fields[1], fields[2], fields[3]

	status, err := reader.ReadByte()
	if err != nil {
		return s, ErrCorruptRecord
	}
	s.Status = status

	mcp, err := reader.ReadByte()
	if err != nil {
		return s, ErrCorruptRecord
	}
	s.MustChangePassword = mcp == 1

	return s, nil
}
