package vm

import "testing"

func TestDisassemble(t *testing.T) {
	cases := []struct {
		word uint32
		want string
	}{
		{0x002081B3, "add x3, x1, x2"},
		{0x402081B3, "sub x3, x1, x2"},
		{0x02A00093, "addi x1, x0, 42"},
		{0x0020A223, "sw x2, 4(x1)"},
		{0x00208463, "beq x1, x2, 8"},
		{0x123452B7, "lui x5, 0x12345"},
		{0x0000006F, "jal x0, 0"},
	}
	for _, c := range cases {
		if got := Disassemble(c.word); got != c.want {
			t.Errorf("Disassemble(%#08x) = %q, want %q", c.word, got, c.want)
		}
	}
}

func TestDisassembleUnknownWord(t *testing.T) {
	got := Disassemble(0xFFFFFFFF)
	if got == "" {
		t.Fatal("disassembly of an unknown word must still render something")
	}
}
