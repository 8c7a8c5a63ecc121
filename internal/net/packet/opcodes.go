package packet

// S_OPCODE_INITPACKET is the single-byte opcode of the plaintext handshake
// packet sent before the cipher is established — outside the normal 2-byte
// little-endian opcode scheme every other packet uses.
const S_OPCODE_INITPACKET byte = 150

// Client-facing opcodes (spec.md §6's representative subset).
const (
	COpcodeLogin         uint16 = 0x0000
	COpcodeAuth          uint16 = 0x0002
	COpcodeSendData      uint16 = 0x0004 // client ready
	COpcodeLogout        uint16 = 0x0005 // 0x01 quit, 0x02 cancel-logout, 0x03 channel-switch
	SOpcodePopulateZone  uint16 = 0x0019
	COpcodeMove          uint16 = 0x001C // x, y, startClientTime, stopClientTime
	COpcodeChat          uint16 = 0x0026
	COpcodeActivateSkill uint16 = 0x0030
	COpcodeExecuteSkill  uint16 = 0x0031
	COpcodeCancelSkill   uint16 = 0x0032 // sourceEntityID, activationID
	SOpcodeKeepAlive     uint16 = 0x0056 // echoes the 4-byte token
	COpcodeRotate        uint16 = 0x00F8 // entityID, rotation, start, stop
	COpcodeItemMove      uint16 = 0x0076
	COpcodeItemDrop      uint16 = 0x0077 // objectID
)

// Internal lobby<->world<->channel opcodes, same framing, 0x1000 range.
const (
	IOpcodeAccountLogin  uint16 = 0x1000
	IOpcodeAccountLogout uint16 = 0x1001
	IOpcodePartyUpdate   uint16 = 0x1002
	IOpcodeClanUpdate    uint16 = 0x1003
)

// LogoutCode names the sub-codes spec.md §6 attaches to COpcodeLogout.
type LogoutCode byte

const (
	LogoutQuit           LogoutCode = 0x01
	LogoutCancel         LogoutCode = 0x02
	LogoutChannelSwitch  LogoutCode = 0x03
)
