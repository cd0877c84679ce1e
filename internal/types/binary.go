package types

import (
	"encoding/binary"
	"io"
)

// BinaryWriter helps with writing fixed-layout binary data.
type BinaryWriter struct {
	writer io.Writer
	order  binary.ByteOrder
}

// NewBinaryWriter creates a new binary writer with the specified byte order.
func NewBinaryWriter(w io.Writer, order binary.ByteOrder) *BinaryWriter {
	return &BinaryWriter{
		writer: w,
		order:  order,
	}
}

// Write writes the binary representation of data into w.
// Data must be a fixed-size value or a slice of fixed-size values, or a
// pointer to such data.
func (bw *BinaryWriter) Write(data interface{}) error {
	return binary.Write(bw.writer, bw.order, data)
}

// WriteUint32 writes a uint32.
func (bw *BinaryWriter) WriteUint32(val uint32) error {
	return bw.Write(val)
}

// WriteUint64 writes a uint64.
func (bw *BinaryWriter) WriteUint64(val uint64) error {
	return bw.Write(val)
}

// WriteBytes writes a slice of bytes.
func (bw *BinaryWriter) WriteBytes(data []byte) error {
	_, err := bw.writer.Write(data)
	return err
}
