package input

// Capabilities describes what a source can emit: the key codes and
// switch codes it advertises.
type Capabilities struct {
	Keys     map[uint16]bool
	Switches map[uint16]bool
}

// HasKey reports whether the source advertises a key code.
func (c Capabilities) HasKey(code uint16) bool {
	return c.Keys[code]
}

// HasSwitch reports whether the source advertises a switch code.
func (c Capabilities) HasSwitch(code uint16) bool {
	return c.Switches[code]
}

// Descriptor is the matching table the coordinator exposes: a source
// advertising any one listed capability is a match.
type Descriptor struct {
	Keys     []uint16
	Switches []uint16
}

// RfkillDescriptor matches the radio hotkeys and the rfkill-all rocker.
func RfkillDescriptor() Descriptor {
	return Descriptor{
		Keys:     []uint16{KeyWLAN, KeyBluetooth, KeyUWB, KeyWiMAX},
		Switches: []uint16{SwRfkillAll},
	}
}

// Matches reports whether the capabilities satisfy the descriptor.
func (d Descriptor) Matches(caps Capabilities) bool {
	for _, code := range d.Keys {
		if caps.HasKey(code) {
			return true
		}
	}
	for _, code := range d.Switches {
		if caps.HasSwitch(code) {
			return true
		}
	}
	return false
}
