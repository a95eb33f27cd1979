// Package swf reads and writes SWF containers and their tag records.
//
// A file is an 8-byte header (signature, version, total length) followed by
// a frame rectangle, frame rate, frame count and a sequence of tags. CWS
// files carry everything after the header as a zlib stream; the length in
// the header is the uncompressed total. ZWS files are rejected.
//
//	f, err := swf.Parse(data)
//	for _, rec := range f.Records {
//		fmt.Println(rec.Tag)
//	}
//	units, err := f.ABC() // every DoABC and DoABCDefine payload
//
// Each tag is framed by a 16-bit word holding a 10-bit type and a 6-bit
// length; a length of 0x3f means a 32-bit length follows. Records remember
// which form they used so Encode reproduces the framing.
//
// Decode maps a payload to a typed Tag for the modeled types and to
// *Unknown for everything else. A payload that decodes but leaves bytes over
// is also kept as *Unknown, so Encode(Decode(p)) returns p for any payload
// Decode accepts.
package swf
