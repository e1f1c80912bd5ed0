// Package j1939id splits a 29-bit J1939/CAN 2.0B extended identifier into
// its PGN, destination address and source address per J1939-21.
package j1939id

// PF values that carry J1939-21 Transport Protocol control/data traffic.
const (
	PFTPDT = 0xEB // TP.DT, Data Transfer
	PFTPCM = 0xEC // TP.CM, Connection Management
	PFACK  = 0xE8 // Acknowledgement
)

// PGNs corresponding to the transport PFs above. These PFs are below 240
// (PDU1), so the PGN is PF*256 whatever the destination address.
const (
	PGNTPCM = 0xEC00
	PGNTPDT = 0xEB00
	PGNACK  = 0xE800
)

// TP.CM control byte values recognized by the reassembler.
const (
	ControlBAM = 0x20
	ControlRTS = 0x10
	ControlCTS = 0x11
)

const addressAll = 0xFF

// Identifier is a parsed J1939 29-bit CAN identifier.
type Identifier struct {
	PGN uint32
	DA  uint8
	SA  uint8
	PF  uint8
}

// Parse splits a 29-bit extended CAN identifier into PGN/DA/SA.
//
// PDU2 (PF >= 240, broadcast): PGN = PF*256 + destination-field byte, DA = 0xFF.
// PDU1 (PF < 240, addressed): PGN = PF*256, DA = destination-field byte.
func Parse(id uint32) Identifier {
	sa := uint8(id & 0xFF)
	pf := uint8((id >> 16) & 0xFF)
	destField := uint8((id >> 8) & 0xFF)

	if pf >= 240 {
		return Identifier{
			PGN: uint32(pf)*256 + uint32(destField),
			DA:  addressAll,
			SA:  sa,
			PF:  pf,
		}
	}
	return Identifier{
		PGN: uint32(pf) * 256,
		DA:  destField,
		SA:  sa,
		PF:  pf,
	}
}

// IsTransportPF reports whether pf carries TP.CM, TP.DT or ACK traffic.
func IsTransportPF(pf uint8) bool {
	return pf == PFTPCM || pf == PFTPDT || pf == PFACK
}

// IsTransportPGN reports whether pgn is one of the well-known transport
// PGNs (0xEC00, 0xEB00, 0xE800).
func IsTransportPGN(pgn uint32) bool {
	return pgn == PGNTPCM || pgn == PGNTPDT || pgn == PGNACK
}
