package types

// Snapshot is a consistent read of every collection the derived views depend on.
// Derived views are pure functions of a Snapshot.
type Snapshot struct {
	Devices   []Device       `json:"devices"`
	Floors    []Floor        `json:"floors"`
	Rooms     []Room         `json:"rooms"`
	Templates []RoomTemplate `json:"room_templates"`
	House     HouseConfig    `json:"house_config"`
}

// DeviceIndex resolves base devices by id
type DeviceIndex map[string]*Device

// Index builds a DeviceIndex over the snapshot devices
func (s *Snapshot) Index() DeviceIndex {
	return IndexDevices(s.Devices)
}

// IndexDevices builds a DeviceIndex over devices
func IndexDevices(devices []Device) DeviceIndex {
	idx := make(DeviceIndex, len(devices))
	for i := range devices {
		idx[devices[i].ID] = &devices[i]
	}
	return idx
}

// Lookup returns the device with the given id, or nil when the reference is dangling
func (idx DeviceIndex) Lookup(id string) *Device {
	if idx == nil {
		return nil
	}
	return idx[id]
}

// DisplayName returns the instance custom name, falling back to the base device name
func (idx DeviceIndex) DisplayName(inst RoomDeviceInstance) string {
	if inst.CustomName != "" {
		return inst.CustomName
	}
	if d := idx.Lookup(inst.DeviceID); d != nil {
		return d.Name
	}
	return ""
}

// ByCategory returns the devices of one category, preserving order
func (s *Snapshot) ByCategory(c Category) []Device {
	var out []Device
	for _, d := range s.Devices {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}
