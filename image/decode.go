package image

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// magic identifies an AVM binary image. version lets Decode reject images
// produced by an incompatible encoder.
const (
	magic   = "AVMB"
	version = 1
)

// Encode writes img to w using the image package's binary framing: a magic
// header, a version byte, then the number constants, string constants, user
// functions, named lib-func symbols and code array, each length-prefixed,
// followed by N and GlobalVarOffset.
func Encode(w io.Writer, img *Image) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := bw.WriteByte(version); err != nil {
		return err
	}

	if err := writeUint32(bw, uint32(len(img.NumConsts))); err != nil {
		return err
	}
	for _, f := range img.NumConsts {
		if err := binary.Write(bw, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, uint32(len(img.StringConsts))); err != nil {
		return err
	}
	for _, s := range img.StringConsts {
		if err := writeString(bw, s); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, uint32(len(img.UserFuncs))); err != nil {
		return err
	}
	for _, uf := range img.UserFuncs {
		if err := writeUint32(bw, uf.Address); err != nil {
			return err
		}
		if err := writeUint32(bw, uf.LocalSize); err != nil {
			return err
		}
		if err := writeString(bw, uf.ID); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, uint32(len(img.NamedLibFuncs))); err != nil {
		return err
	}
	for _, nm := range img.NamedLibFuncs {
		if err := writeString(bw, nm); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, uint32(len(img.Code))); err != nil {
		return err
	}
	for _, instr := range img.Code {
		if err := bw.WriteByte(byte(instr.Opcode)); err != nil {
			return err
		}
		for _, op := range [3]Operand{instr.Result, instr.Arg1, instr.Arg2} {
			if err := bw.WriteByte(byte(op.Kind)); err != nil {
				return err
			}
			if err := writeUint32(bw, op.Value); err != nil {
				return err
			}
		}
		if err := writeUint32(bw, instr.SrcLine); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, img.N); err != nil {
		return err
	}
	if err := writeUint32(bw, img.GlobalVarOffset); err != nil {
		return err
	}

	return bw.Flush()
}

// Decode reads an image previously produced by Encode.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	hdr := make([]byte, len(magic))
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, fmt.Errorf("image: reading magic: %w", err)
	}
	if string(hdr) != magic {
		return nil, fmt.Errorf("image: bad magic %q", hdr)
	}
	v, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("image: reading version: %w", err)
	}
	if v != version {
		return nil, fmt.Errorf("image: unsupported version %d", v)
	}

	img := new(Image)

	n, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading numConsts length: %w", err)
	}
	img.NumConsts = make([]float64, n)
	for i := range img.NumConsts {
		if err := binary.Read(br, binary.LittleEndian, &img.NumConsts[i]); err != nil {
			return nil, fmt.Errorf("image: reading numConst %d: %w", i, err)
		}
	}

	n, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading stringConsts length: %w", err)
	}
	img.StringConsts = make([]string, n)
	for i := range img.StringConsts {
		s, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading stringConst %d: %w", i, err)
		}
		img.StringConsts[i] = s
	}

	n, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading userFuncs length: %w", err)
	}
	img.UserFuncs = make([]UserFunc, n)
	for i := range img.UserFuncs {
		addr, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading userFunc %d address: %w", i, err)
		}
		localSize, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading userFunc %d localSize: %w", i, err)
		}
		id, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading userFunc %d id: %w", i, err)
		}
		img.UserFuncs[i] = UserFunc{Address: addr, LocalSize: localSize, ID: id}
	}

	n, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading namedLibFuncs length: %w", err)
	}
	img.NamedLibFuncs = make([]string, n)
	for i := range img.NamedLibFuncs {
		s, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading namedLibFunc %d: %w", i, err)
		}
		img.NamedLibFuncs[i] = s
	}

	n, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading code length: %w", err)
	}
	img.Code = make([]Instruction, n)
	for i := range img.Code {
		opb, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("image: reading instruction %d opcode: %w", i, err)
		}
		var ops [3]Operand
		for j := range ops {
			kb, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("image: reading instruction %d operand %d kind: %w", i, j, err)
			}
			val, err := readUint32(br)
			if err != nil {
				return nil, fmt.Errorf("image: reading instruction %d operand %d value: %w", i, j, err)
			}
			ops[j] = Operand{Kind: OperandKind(kb), Value: val}
		}
		srcLine, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("image: reading instruction %d srcLine: %w", i, err)
		}
		img.Code[i] = Instruction{Opcode: Opcode(opb), Result: ops[0], Arg1: ops[1], Arg2: ops[2], SrcLine: srcLine}
	}

	img.N, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading N: %w", err)
	}
	img.GlobalVarOffset, err = readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("image: reading globalVarOffset: %w", err)
	}

	return img, nil
}

// HasMagic reports whether b starts with the AVM binary image magic, so
// callers can distinguish an encoded image from, e.g., assembly source text.
func HasMagic(b []byte) bool {
	return len(b) >= len(magic) && string(b[:len(magic)]) == magic
}

func writeUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
