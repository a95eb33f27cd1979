// Package swfkit reads, edits and writes SWF files and the AVM2 bytecode
// they carry.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	swfkit/
//	├── swf/             SWF container, tag framing and typed tag records
//	├── abc/             ABC units, constant pool, opcode table and disassembler
//	├── errors/          Structured error types for debugging
//	├── internal/binary/ Byte and bit level readers and writers
//	└── cmd/swfdis/      Command line disassembler and method browser
//
// # Quick Start
//
// List the tags of a file and disassemble its bytecode:
//
//	f, err := swf.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	units, err := f.ABC()
//	for _, u := range units {
//	    for i := range u.Bodies {
//	        code, _ := u.Bodies[i].Disassemble()
//	        text, _ := code.Listing(u.Pool, abc.ListingOptions{Addresses: true})
//	        fmt.Println(u.MethodLabel(int(u.Bodies[i].Method)))
//	        fmt.Print(text)
//	    }
//	}
//
// # Editing Bytecode
//
// Instructions keep their operands as plain integers. After inserting,
// removing or changing instructions, Code.Relayout recomputes offsets and
// rewrites every branch delta. A branch to an address where an instruction
// was inserted lands on the inserted instruction:
//
//	code = slices.Insert(code, 2, abc.Instruction{Def: abc.Lookup(abc.OpNop), Offset: code[2].Offset})
//	if err := code.Relayout(); err != nil {
//	    return err
//	}
//	body.Code, err = code.Encode()
//
// # Fidelity
//
// Tags without a model, and modeled tags whose payload does not match the
// model exactly, are kept as raw payloads. Uncompressed files re-encode to
// the same bytes.
//
// # Thread Safety
//
// Parsed values are plain data and are not synchronized. The package
// loggers must be set before decoding starts.
package swfkit
