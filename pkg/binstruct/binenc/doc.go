// Package binenc provides the byte cursor and append buffer that every codec
// in binstruct reads from and writes to.
//
// The package uses an error-accumulation pattern inspired by bufio.Scanner:
// callers perform multiple read/write operations and check for errors once at
// the end, rather than after every individual operation.
//
// Reader wraps a byte slice with a position cursor and accumulates the first
// error. Once an error occurs, all subsequent reads become no-ops returning
// zero values:
//
//	r := binenc.NewReader(data)
//	kind := r.ReadUint8()
//	length := r.ReadUint(3, binenc.BigEndian)
//	body := r.ReadBytes(int(length))
//	if r.Err() != nil {
//	    return r.Err() // handles any short read in the sequence
//	}
//
// Writer appends to a byte buffer with pre-allocated capacity and supports
// alignment padding and backpatching of offsets:
//
//	w := binenc.NewWriter(64)
//	w.WriteUint(2, binenc.LittleEndian, 36)
//	w.Pad(8)
//	return w.Bytes()
//
// Integers of 1, 2, 3, 4 and 8 bytes are supported in both byte orders. The
// fixed-width helpers (ReadUint16, WriteUint32, ...) are little-endian, the
// order used by SMB, SMB2 and NTLM.
package binenc
