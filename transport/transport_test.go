package transport

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// freePorts asks the OS for n ephemeral UDP ports by binding :0 and
// reading back what it chose, then releases them for the real test.
func freePorts(t *testing.T, n int) []int {
	t.Helper()
	ports := make([]int, 0, n)
	var held []*Transport
	for i := 0; i < n; i++ {
		tr, err := Bind([]int{0}, zerolog.Nop())
		if err != nil {
			t.Fatalf("unexpected error reserving an ephemeral port: %v", err)
		}
		for _, conn := range tr.sockets {
			ports = append(ports, conn.LocalAddr().(*net.UDPAddr).Port)
		}
		held = append(held, tr)
	}
	for _, tr := range held {
		tr.Close()
	}
	return ports
}

func TestBindAndClose(t *testing.T) {
	ports := freePorts(t, 2)
	tr, err := Bind(ports, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tr.Close()
	if len(tr.sockets) != 2 {
		t.Errorf("expected 2 bound sockets, got %d", len(tr.sockets))
	}
}

func TestSendAndReceive(t *testing.T) {
	ports := freePorts(t, 2)
	a, err := Bind([]int{ports[0]}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error binding a: %v", err)
	}
	defer a.Close()
	b, err := Bind([]int{ports[1]}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error binding b: %v", err)
	}
	defer b.Close()

	a.Send(ports[1], []byte("hello"))

	select {
	case dgram := <-b.Incoming():
		if string(dgram.Data) != "hello" {
			t.Errorf("expected payload %q, got %q", "hello", dgram.Data)
		}
		if dgram.LocalPort != ports[1] {
			t.Errorf("expected LocalPort %d, got %d", ports[1], dgram.LocalPort)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestBindFailureClosesEarlierSockets(t *testing.T) {
	ports := freePorts(t, 1)
	holder, err := Bind([]int{ports[0]}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer holder.Close()

	morePorts := freePorts(t, 1)
	_, err = Bind([]int{morePorts[0], ports[0]}, zerolog.Nop())
	if err == nil {
		t.Errorf("expected an error binding an already-bound port")
	}

	again, err := Bind([]int{morePorts[0]}, zerolog.Nop())
	if err != nil {
		t.Errorf("expected port %d to be free again after the failed Bind, got %v", morePorts[0], err)
	} else {
		again.Close()
	}
}
