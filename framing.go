package serialmon

import (
	"fmt"

	gobug "go.bug.st/serial"
)

// Framing is the byte-level encoding of each character on the line.
type Framing struct {
	DataBits DataBits
	Parity   Parity
	StopBits StopBits
}

// Framing8N1 is the only framing the monitor opens devices with.
var Framing8N1 = Framing{
	DataBits: DataBits8,
	Parity:   ParityNone,
	StopBits: StopBits1,
}

// Mode converts the framing and baud rate into the structure expected by
// go.bug.st/serial when opening a port.
func (f Framing) Mode(baud BaudRate) *gobug.Mode {
	return &gobug.Mode{
		BaudRate: baud.Int(),
		DataBits: f.DataBits.Int(),
		Parity:   f.Parity.Get(),
		StopBits: f.StopBits.Get(),
	}
}

func (f Framing) String() string {
	return fmt.Sprintf("%d-%s-%s", f.DataBits.Int(), f.Parity, f.StopBits)
}
