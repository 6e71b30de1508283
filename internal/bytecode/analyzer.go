// Package bytecode implements the Bytecode Analyzer and Bytecode Validator:
// a pure, deterministic parser for a JVMS-subset classfile format, and a
// classification policy over the metadata it extracts.
package bytecode

import "encoding/binary"

const classMagic = 0xCAFEBABE

const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
)

// constantPool holds just enough of the constant pool to resolve class,
// field, and method names: UTF8 strings and Class entries pointing at them.
// Everything else (Fieldref, Methodref, numeric constants) is skipped by
// its fixed-size or tag-specific layout without being retained, since
// fields/methods tables reference names and descriptors directly.
type constantPool struct {
	utf8           map[int]string
	classNameIndex map[int]uint16
}

func (p *constantPool) utf8At(index int) (string, bool) {
	s, ok := p.utf8[index]
	return s, ok
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) u1() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, parseErrorf(r.pos, "unexpected end of input reading u1")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, parseErrorf(r.pos, "unexpected end of input reading u2")
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, parseErrorf(r.pos, "unexpected end of input reading u4")
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) skip(n int) error {
	if r.pos+n > len(r.data) {
		return parseErrorf(r.pos, "unexpected end of input skipping %d bytes", n)
	}
	r.pos += n
	return nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, parseErrorf(r.pos, "unexpected end of input reading %d bytes", n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Parse decodes raw classfile bytes into Metadata. It reads only the magic
// header, constant pool, access flags, this/super/interfaces, and the
// fields/methods tables' names and descriptors — attribute payloads
// (including any Code attribute's instruction stream) are skipped by their
// declared length, never decoded, since the Validator only needs to know
// whether a method body changed, not how.
func Parse(data []byte) (Metadata, error) {
	r := &reader{data: data}

	magic, err := r.u4()
	if err != nil {
		return Metadata{}, err
	}
	if magic != classMagic {
		return Metadata{}, parseErrorf(0, "bad magic %#08x", magic)
	}

	if _, err := r.u2(); err != nil { // minor_version
		return Metadata{}, err
	}
	if _, err := r.u2(); err != nil { // major_version
		return Metadata{}, err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return Metadata{}, err
	}

	if _, err := r.u2(); err != nil { // access_flags
		return Metadata{}, err
	}

	thisClass, err := r.u2()
	if err != nil {
		return Metadata{}, err
	}
	superClass, err := r.u2()
	if err != nil {
		return Metadata{}, err
	}

	name, err := resolveClassName(pool, int(thisClass))
	if err != nil {
		return Metadata{}, err
	}
	super := ""
	if superClass != 0 {
		super, err = resolveClassName(pool, int(superClass))
		if err != nil {
			return Metadata{}, err
		}
	}

	interfaces, err := readInterfaces(r, pool)
	if err != nil {
		return Metadata{}, err
	}

	fields, err := readFields(r, pool)
	if err != nil {
		return Metadata{}, err
	}

	methods, err := readMethods(r, pool)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
		Fields:     fields,
		Methods:    methods,
	}, nil
}

func readConstantPool(r *reader) (*constantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	pool := &constantPool{utf8: make(map[int]string), classNameIndex: make(map[int]uint16)}

	// Constant pool indices are 1-based; entry 0 is unused. Long and Double
	// entries occupy two consecutive indices per JVMS, so the loop variable
	// is advanced by 2 for those tags.
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagUTF8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			pool.utf8[i] = string(b)
		case tagClass:
			nameIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool.classNameIndex[i] = nameIdx
		case tagString:
			if _, err := r.u2(); err != nil {
				return nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType:
			if _, err := r.u2(); err != nil {
				return nil, err
			}
			if _, err := r.u2(); err != nil {
				return nil, err
			}
		case tagInteger, tagFloat:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case tagLong, tagDouble:
			if err := r.skip(8); err != nil {
				return nil, err
			}
			i++ // occupies the next index too
		default:
			return nil, parseErrorf(r.pos, "unsupported constant pool tag %d at index %d", tag, i)
		}
	}
	return pool, nil
}

// resolveClassName follows a Class constant's name_index to its UTF8 entry.
func resolveClassName(pool *constantPool, classIndex int) (string, error) {
	nameIdx, ok := pool.classNameIndex[classIndex]
	if !ok {
		return "", parseErrorf(0, "constant pool index %d is not a Class entry", classIndex)
	}
	name, ok := pool.utf8At(int(nameIdx))
	if !ok {
		return "", parseErrorf(0, "class name_index %d is not UTF8", nameIdx)
	}
	return name, nil
}

func readInterfaces(r *reader, pool *constantPool) ([]string, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := resolveClassName(pool, int(idx))
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func readFields(r *reader, pool *constantPool) ([]FieldDescriptor, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]FieldDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		if _, err := r.u2(); err != nil { // access_flags
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, ok := pool.utf8At(int(nameIdx))
		if !ok {
			return nil, parseErrorf(r.pos, "field name_index %d is not UTF8", nameIdx)
		}
		desc, ok := pool.utf8At(int(descIdx))
		if !ok {
			return nil, parseErrorf(r.pos, "field descriptor_index %d is not UTF8", descIdx)
		}
		if err := skipAttributes(r); err != nil {
			return nil, err
		}
		out = append(out, FieldDescriptor{Name: name, Descriptor: desc})
	}
	return out, nil
}

func readMethods(r *reader, pool *constantPool) ([]MethodDescriptor, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]MethodDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		if _, err := r.u2(); err != nil { // access_flags
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, ok := pool.utf8At(int(nameIdx))
		if !ok {
			return nil, parseErrorf(r.pos, "method name_index %d is not UTF8", nameIdx)
		}
		desc, ok := pool.utf8At(int(descIdx))
		if !ok {
			return nil, parseErrorf(r.pos, "method descriptor_index %d is not UTF8", descIdx)
		}
		if err := skipAttributes(r); err != nil {
			return nil, err
		}
		out = append(out, MethodDescriptor{Name: name, Descriptor: desc})
	}
	return out, nil
}

// skipAttributes consumes an attributes table without decoding any
// attribute's payload: every attribute_info starts with a 2-byte name
// index and a 4-byte length, which is all that's needed to skip over it
// regardless of content (including a method's Code attribute).
func skipAttributes(r *reader) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := r.u2(); err != nil { // attribute_name_index
			return err
		}
		length, err := r.u4()
		if err != nil {
			return err
		}
		if err := r.skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}
