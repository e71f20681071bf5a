package binary

// Magic is the 4 byte preamble of every WebAssembly binary module: literally "\0asm".
// See https://www.w3.org/TR/wasm-core-1/#binary-magic
var Magic = []byte{0x00, 0x61, 0x73, 0x6d}

// version is the format version; it doesn't change between known specification versions.
// See https://www.w3.org/TR/wasm-core-1/#binary-version
var version = []byte{0x01, 0x00, 0x00, 0x00}
