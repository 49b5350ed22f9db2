package manifest

import "strings"

var fixturePlaintext = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 3)

// fixturePlaintext as an .xz stream (CRC32 check).
var fixtureXZ = []byte{
	0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x01, 0x69, 0x22, 0xde, 0x36,
	0x02, 0x00, 0x21, 0x01, 0x0c, 0x00, 0x00, 0x00, 0x8f, 0x98, 0x41, 0x9c,
	0xe0, 0x00, 0x86, 0x00, 0x33, 0x5d, 0x00, 0x2a, 0x1a, 0x08, 0xa2, 0x03,
	0x25, 0x66, 0xf1, 0x4b, 0x78, 0xc5, 0xa2, 0x05, 0xff, 0x2e, 0xe6, 0xd9,
	0xd2, 0x20, 0x1a, 0xad, 0x34, 0xf8, 0xe2, 0x1d, 0xe8, 0x41, 0x36, 0xfa,
	0xdc, 0x06, 0x69, 0xbb, 0x3c, 0xe4, 0x10, 0x34, 0x27, 0x09, 0xeb, 0xb3,
	0x66, 0xe3, 0xed, 0x37, 0x5a, 0xe8, 0x0f, 0x61, 0x80, 0x00, 0x00, 0x00,
	0x58, 0x00, 0x1e, 0x00, 0x00, 0x01, 0x4b, 0x87, 0x01, 0x00, 0x00, 0x00,
	0x95, 0x25, 0xb0, 0x1d, 0x3e, 0x30, 0x0d, 0x8b, 0x02, 0x00, 0x00, 0x00,
	0x00, 0x01, 0x59, 0x5a,
}

// fixturePlaintext as a legacy LZMA stream with a 13 byte header.
var fixtureLZMA = []byte{
	0x5d, 0x00, 0x00, 0x04, 0x00, 0x87, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x2a, 0x1a, 0x08, 0xa2, 0x03, 0x25, 0x66, 0xf1, 0x4b, 0x78,
	0xc5, 0xa2, 0x05, 0xff, 0x2e, 0xe6, 0xd9, 0xd2, 0x20, 0x1a, 0xad, 0x34,
	0xf8, 0xe2, 0x1d, 0xe8, 0x41, 0x36, 0xfa, 0xdc, 0x06, 0x69, 0xbb, 0x3c,
	0xe4, 0x10, 0x34, 0x27, 0x09, 0xeb, 0xb3, 0x66, 0xe3, 0xed, 0x37, 0x5a,
	0xe8, 0x1a, 0xe4, 0x77, 0xff, 0xff, 0xfa, 0xc0, 0xa0, 0x00,
}

// A manifest body (package "base" holding "data/a.txt", 5 bytes, sha256 of "hello")
// as a legacy LZMA stream.
var fixtureLZMABody = []byte{
	0x5d, 0x00, 0x00, 0x01, 0x00, 0x3e, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x05, 0x0f, 0xf9, 0x89, 0xfe, 0x41, 0xb2, 0x26, 0xa9, 0x4b,
	0xb0, 0x60, 0x54, 0xc5, 0x3e, 0x93, 0x81, 0xd4, 0x21, 0xf7, 0xc7, 0x08,
	0x01, 0x37, 0xf9, 0x3f, 0x08, 0x34, 0x65, 0xe0, 0x57, 0x4a, 0x06, 0x42,
	0xbd, 0x8f, 0x75, 0xcf, 0xdf, 0xf6, 0x47, 0xe3, 0x7f, 0xa6, 0x5b, 0x33,
	0x03, 0x3d, 0x69, 0x45, 0x39, 0x59, 0x56, 0x3b, 0x54, 0x8e, 0xbb, 0x83,
	0x37, 0x2e, 0x65, 0x29, 0x18, 0x50, 0x2a, 0xa4, 0x26, 0xc7, 0x57, 0x01,
	0xff, 0xff, 0x3c, 0x18, 0x00, 0x00,
}

const fixtureHelloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
