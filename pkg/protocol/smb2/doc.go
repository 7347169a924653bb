// Package smb2 declares the SMB2/SMB3 message schemas on top of binstruct.
//
// # Header Structure
//
// Every SMB2 message starts with a 64-byte header. Bytes 32 to 39 hold
// either a 4-byte reserved field and the tree ID (synchronous messages) or
// an 8-byte async ID (the async flag is set), so both variants have the same
// size but a different field set:
//
//	Offset  Size  Field           Description
//	------  ----  --------------  ----------------------------------
//	0       4     protocol        Magic: 0xFE 'S' 'M' 'B'
//	4       2     structure_size  Always 64
//	6       2     credit_charge   Credits consumed by this request
//	8       4     status          NT_STATUS (responses only)
//	12      2     command         SMB2 command code
//	14      2     credit          Credits requested/granted
//	16      4     flags           Header flags (bit-fields)
//	20      4     next_command    Offset to next command (compound)
//	24      8     message_id      Unique request identifier
//	32      8     async_id        Async flag set
//	32      4     reserved        Async flag clear
//	36      4     tree_id         Async flag clear
//	40      8     session_id      Session identifier
//	48      16    signature       Message signature (if signed)
//	64      ...   body            Command request or response
//
// # Byte Order
//
// All fields are little-endian. GUIDs are mixed-endian: the first three
// groups are little-endian, the last eight bytes are stored as written.
//
// # Offsets
//
// Every offset field of an SMB2 body counts from the first byte of the
// header, so body schemas are anchored at HeaderSize. Recompute fills the
// offset, length and count fields and the 8-byte alignment paddings.
//
// # Bodies
//
// BodySchema maps a command, the response flag and the status to the body
// schema: NEGOTIATE and SESSION_SETUP requests and responses are declared,
// and error statuses select ErrorResponse.
package smb2
