package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in m under the given name. It is
// non-normative tooling: useful for debugging traces, not part of the
// bytecode's observable behavior.
func Disassemble(m *Module, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(m.Code); {
		line := disassembleInstructionInto(&b, m, offset)
		offset = line
	}
	return b.String()
}

func disassembleInstruction(m *Module, offset int) string {
	var b strings.Builder
	disassembleInstructionInto(&b, m, offset)
	return strings.TrimRight(b.String(), "\n")
}

func disassembleInstructionInto(b *strings.Builder, m *Module, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && m.Lines[offset] == m.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", m.Lines[offset])
	}

	op := Op(m.Code[offset])
	switch op {
	case OpConstant:
		return constantInstruction(b, op, m, offset)
	case OpGetLocal, OpSetLocal, OpCall, OpBuildList:
		return byteInstruction(b, op, m, offset)
	case OpGetGlobal, OpDefineGlobal, OpSetGlobal:
		return constantInstruction(b, op, m, offset)
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return jumpInstruction(b, op, m, offset, 1)
	case OpLoop:
		return jumpInstruction(b, op, m, offset, -1)
	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(b *strings.Builder, op Op, m *Module, offset int) int {
	idx := m.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, m.Constants[idx].String())
	return offset + 2
}

func byteInstruction(b *strings.Builder, op Op, m *Module, offset int) int {
	slot := m.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(b *strings.Builder, op Op, m *Module, offset int, sign int) int {
	jump := int(m.Code[offset+1])<<8 | int(m.Code[offset+2])
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}
