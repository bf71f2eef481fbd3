package packet

import (
	"bytes"
	"encoding/binary"
)

// BinaryCodec implements a fixed RIPv2-shaped alternative wire
// encoding usable in place of the JSON reference form: a byte command,
// a byte version, a big-endian router_id, a big-endian entry count,
// then that many {destination, metric} big-endian uint16 pairs.
// Reading proceeds off a bytes.Buffer, pulling fixed-width fields in
// sequence off the byte stream.
type BinaryCodec struct{}

// Encode renders m as the fixed binary layout.
func (BinaryCodec) Encode(m Message) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(m.Command))
	buf.WriteByte(byte(m.Version))
	binary.Write(buf, binary.BigEndian, m.RouterID)
	binary.Write(buf, binary.BigEndian, uint16(len(m.Entries)))
	for _, e := range m.Entries {
		binary.Write(buf, binary.BigEndian, e.Destination)
		binary.Write(buf, binary.BigEndian, uint16(e.Metric))
	}
	return buf.Bytes(), nil
}

// Decode parses the fixed binary layout. It returns ErrMalformedPacket
// if b is shorter than the header or than the entry count declares.
func (BinaryCodec) Decode(b []byte) (Message, error) {
	buf := bytes.NewBuffer(b)
	if buf.Len() < 6 {
		return Message{}, &ErrMalformedPacket{Reason: "too short for a header"}
	}

	command, _ := buf.ReadByte()
	version, _ := buf.ReadByte()
	routerID := readUint16(buf)
	count := readUint16(buf)

	m := Message{
		Command:  int(command),
		Version:  int(version),
		RouterID: routerID,
	}

	for i := uint16(0); i < count; i++ {
		if buf.Len() < 4 {
			return Message{}, &ErrMalformedPacket{Reason: "entry count exceeds remaining bytes"}
		}
		dest := readUint16(buf)
		metric := readUint16(buf)
		m.Entries = append(m.Entries, Entry{Destination: dest, Metric: int(metric)})
	}

	return m, nil
}

func readUint16(buf *bytes.Buffer) uint16 {
	b := make([]byte, 2)
	buf.Read(b)
	return binary.BigEndian.Uint16(b)
}
