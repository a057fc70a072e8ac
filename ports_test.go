package serialmon

import (
	"errors"
	"testing"

	"go.bug.st/serial/enumerator"
)

func withPortLists(t *testing.T, names []string, namesErr error, details []*enumerator.PortDetails, detailsErr error) {
	t.Helper()
	origNames, origDetails := getPortsList, getDetailedPortsList
	getPortsList = func() ([]string, error) { return names, namesErr }
	getDetailedPortsList = func() ([]*enumerator.PortDetails, error) { return details, detailsErr }
	t.Cleanup(func() {
		getPortsList = origNames
		getDetailedPortsList = origDetails
	})
}

func TestAvailablePortsSorted(t *testing.T) {
	withPortLists(t, []string{"/dev/ttyUSB1", "/dev/ttyACM0"}, nil, nil, nil)

	ports, err := AvailablePorts()
	if err != nil {
		t.Fatalf("AvailablePorts error: %v", err)
	}
	if len(ports) != 2 || ports[0] != "/dev/ttyACM0" {
		t.Fatalf("unexpected ports %v", ports)
	}
}

func TestListPortsDetailed(t *testing.T) {
	withPortLists(t, nil, nil, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A50285BI"},
		nil,
		{Name: "/dev/ttyS0"},
	}, nil)

	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts error: %v", err)
	}
	if len(ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ports))
	}
	if ports[0].Name != "/dev/ttyS0" || ports[1].VID != "0403" || !ports[1].IsUSB {
		t.Fatalf("unexpected ports %+v", ports)
	}
}

func TestListPortsFallsBackToNames(t *testing.T) {
	withPortLists(t, []string{"COM3"}, nil, nil, errors.New("enumeration unsupported"))

	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts error: %v", err)
	}
	if len(ports) != 1 || ports[0].Name != "COM3" || ports[0].IsUSB {
		t.Fatalf("unexpected ports %+v", ports)
	}
}

func TestListPortsBothFail(t *testing.T) {
	detailErr := errors.New("enumeration unsupported")
	withPortLists(t, nil, errors.New("no ports"), nil, detailErr)

	if _, err := ListPorts(); !errors.Is(err, detailErr) {
		t.Fatalf("ListPorts error = %v, want detailed enumeration error", err)
	}
}
