// Package bytecodetest assembles minimal valid classfiles byte-for-byte,
// for tests that need real artifacts without a Java toolchain present.
package bytecodetest

import (
	"bytes"
	"encoding/binary"
)

const (
	tagUTF8  = 1
	tagClass = 7
)

// Class describes the artifact to assemble. Fields and Methods are
// [name, descriptor] pairs. Code is the body bytes shared by every method;
// varying it produces a method-body-only change relative to an otherwise
// identical Class.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Fields     [][2]string
	Methods    [][2]string
	Code       []byte
}

// Bytes assembles the classfile.
func (c Class) Bytes() []byte {
	code := c.Code
	if len(code) == 0 {
		code = []byte{0xAC}
	}

	var utf8 []string
	utf8Index := make(map[string]int)
	addUTF8 := func(s string) int {
		if idx, ok := utf8Index[s]; ok {
			return idx
		}
		utf8 = append(utf8, s)
		idx := len(utf8)
		utf8Index[s] = idx
		return idx
	}

	for _, f := range c.Fields {
		addUTF8(f[0])
		addUTF8(f[1])
	}
	for _, m := range c.Methods {
		addUTF8(m[0])
		addUTF8(m[1])
	}
	if len(c.Methods) > 0 {
		addUTF8("Code")
	}

	classNames := []string{c.Name}
	if c.Super != "" {
		classNames = append(classNames, c.Super)
	}
	classNames = append(classNames, c.Interfaces...)
	seen := make(map[string]bool)
	deduped := classNames[:0]
	for _, n := range classNames {
		if !seen[n] {
			seen[n] = true
			deduped = append(deduped, n)
		}
	}
	classNames = deduped
	for _, n := range classNames {
		addUTF8(n)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&buf, binary.BigEndian, uint16(0)) // minor
	binary.Write(&buf, binary.BigEndian, uint16(0)) // major

	binary.Write(&buf, binary.BigEndian, uint16(1+len(utf8)+len(classNames)))
	for _, s := range utf8 {
		buf.WriteByte(tagUTF8)
		binary.Write(&buf, binary.BigEndian, uint16(len(s)))
		buf.WriteString(s)
	}
	classIdx := make(map[string]int)
	next := len(utf8) + 1
	for _, n := range classNames {
		classIdx[n] = next
		next++
		buf.WriteByte(tagClass)
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index[n]))
	}

	binary.Write(&buf, binary.BigEndian, uint16(0)) // access_flags
	binary.Write(&buf, binary.BigEndian, uint16(classIdx[c.Name]))
	if c.Super != "" {
		binary.Write(&buf, binary.BigEndian, uint16(classIdx[c.Super]))
	} else {
		binary.Write(&buf, binary.BigEndian, uint16(0))
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(c.Interfaces)))
	for _, in := range c.Interfaces {
		binary.Write(&buf, binary.BigEndian, uint16(classIdx[in]))
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		binary.Write(&buf, binary.BigEndian, uint16(0)) // access_flags
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index[f[0]]))
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index[f[1]]))
		binary.Write(&buf, binary.BigEndian, uint16(0)) // attributes_count
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		binary.Write(&buf, binary.BigEndian, uint16(0)) // access_flags
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index[m[0]]))
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index[m[1]]))
		binary.Write(&buf, binary.BigEndian, uint16(1)) // attributes_count
		binary.Write(&buf, binary.BigEndian, uint16(utf8Index["Code"]))
		binary.Write(&buf, binary.BigEndian, uint32(len(code)))
		buf.Write(code)
	}

	binary.Write(&buf, binary.BigEndian, uint16(0)) // class-level attributes_count

	return buf.Bytes()
}
