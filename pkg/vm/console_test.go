package vm

import (
	"net"
	"testing"
	"time"
)

func TestConsoleContainsWindow(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := NewConsole(server, 0x9000)
	defer c.Close()

	if !c.Contains(0x9000) || !c.Contains(0x9007) {
		t.Error("Contains should accept the full 8-byte register window")
	}
	if c.Contains(0x8FFF) || c.Contains(0x9008) {
		t.Error("Contains should reject addresses outside the window")
	}
}

func TestConsoleWriteByteTransmits(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := NewConsole(server, 0x9000)
	defer c.Close()

	done := make(chan byte, 1)
	go func() {
		var buf [1]byte
		client.Read(buf[:])
		done <- buf[0]
	}()

	if err := c.WriteByte(0x9000, 0x41); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	select {
	case got := <-done:
		if got != 0x41 {
			t.Errorf("got %#x, want 0x41", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the byte to arrive on the control connection")
	}
}

func TestConsolePollReadsInputByte(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := NewConsole(server, 0x9000)
	defer c.Close()

	go func() { client.Write([]byte{0x5A}) }()

	// Poll until the byte lands (net.Pipe synchronizes the write, but
	// give the goroutine a moment to schedule).
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := c.Poll(); err != nil {
			t.Fatalf("Poll: %v", err)
		}
		b, err := c.ReadByte(0x9000)
		if err != nil {
			t.Fatal(err)
		}
		if b == 0x5A {
			return
		}
	}
	t.Fatal("input byte never became available through ReadByte")
}

func TestConsoleStatusRegisterReflectsInputReady(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := NewConsole(server, 0x9000)
	defer c.Close()

	status, err := c.ReadByte(0x9004)
	if err != nil {
		t.Fatal(err)
	}
	if status&consoleStatusInputReady != 0 {
		t.Error("input-ready bit should be clear with nothing pending")
	}
	if status&consoleStatusOutputReady == 0 {
		t.Error("output-ready bit should always be set (writes are synchronous)")
	}
}

func TestConsoleSatisfiesMMIODevice(t *testing.T) {
	var _ MMIODevice = (*Console)(nil)
}
