// Package vm implements a cycle-level functional simulator of a 32-bit
// RISC-V integer core (RV32I).
//
// The simulator models a classic five-stage in-order pipeline — Fetch,
// Decode, Execute, Memory access, Writeback — atop a byte-addressable
// physical memory and a page-based memory management unit with three
// privilege modes (USER, SUPERVISOR, MACHINE). One driver cycle retires
// exactly one instruction; the stage decomposition exists so each stage
// can be unit-tested in isolation, not to provide pipeline parallelism.
//
// Instruction formats
//
// RV32I instructions are 32 bits wide and come in six formats:
//
//	R-type: <funct7:7><rs2:5><rs1:5><funct3:3><rd:5><opcode:7>
//	I-type: <imm[11:0]:12><rs1:5><funct3:3><rd:5><opcode:7>
//	S-type: <imm[11:5]:7><rs2:5><rs1:5><funct3:3><imm[4:0]:5><opcode:7>
//	B-type: like S-type but the immediate encodes a scattered, sign-extended
//	        13-bit branch offset with bit 0 forced to zero.
//	U-type: <imm[31:12]:20><rd:5><opcode:7>
//	J-type: like U-type but the immediate encodes a scattered, sign-extended
//	        21-bit jump offset with bit 0 forced to zero.
//
// Memory management
//
// Every architectural memory access — fetch, load, store — is translated
// by the MMU. Virtual addresses are split into a 20-bit virtual page
// number and a 12-bit page offset; the MMU looks up the VPN in a
// PageTable, checks the Valid bit, checks the requested permission
// (Read/Write/Execute) against the entry's R/W/X bits, and — outside
// MACHINE mode — checks the entry's UserAccessible bit. A zeroed entry
// (no Valid bit) always faults.
//
// Fault taxonomy
//
// Faults are never recovered inside the pipeline: they unwind to the
// driver, which stops the cycle loop and returns the fault to the
// caller. There is no trap vector and no privilege-mode escalation on
// fault; that machinery (mtvec/medeleg) is out of scope.
//
// Out of scope
//
// Floating point, the A/M/C extensions, CSR/interrupt handling, DMA,
// caches, branch prediction, out-of-order issue, and multi-hart
// coherency are not implemented. Cycle-accurate timing is explicitly not
// a goal: this is a functional simulator.
package vm
