package serialmon

import (
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial device present on the system.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// allow tests to override the detailed enumerator
var getDetailedPortsList = enumerator.GetDetailedPortsList

// AvailablePorts returns the names of the serial ports present on the system.
func AvailablePorts() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// ListPorts returns every serial port with USB details where the platform
// provides them. If detailed enumeration fails, it falls back to names only.
func ListPorts() ([]PortInfo, error) {
	details, err := getDetailedPortsList()
	if err != nil || len(details) == 0 {
		names, nerr := AvailablePorts()
		if nerr != nil {
			if err != nil {
				return nil, err
			}
			return nil, nerr
		}
		out := make([]PortInfo, 0, len(names))
		for _, n := range names {
			out = append(out, PortInfo{Name: n})
		}
		return out, nil
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		out = append(out, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
