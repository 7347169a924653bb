// Package binstruct is a declarative engine for variable-layout binary
// messages.
//
// A Schema is an ordered list of Fields. Each field has a codec Type and may
// carry a presence Predicate and a Builder; both see only the fields declared
// before it through a read-only View. A Struct instantiates a schema and
// implements Value, so structs nest inside other structs, arrays and choices.
//
// Fields whose content is addressed by length and offset fields (NTLM
// buffers, SMB2 security buffers) and alignment fillers are kept consistent
// by Recompute:
//
//	msg := negotiateSchema.New()
//	_ = msg.Get("payload").(*binstruct.Payload).SetItem("domain_name", "DOMAIN")
//	if err := msg.Recompute(); err != nil {
//		return err
//	}
//	wire := msg.Bytes()
//
// Reading then writing a well-formed buffer reproduces it byte for byte;
// Recompute is only needed after mutation.
package binstruct
