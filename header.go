package vpk

// dirHeader is the parsed form of the fixed-width header that opens a v1 or
// v2 directory file. Version0 packages have no header at all; parsePackage
// (package.go) takes their index size from the bytes the index grammar
// consumed.
type dirHeader struct {
	version         Version
	indexSize       uint32
	dataSize        uint32
	archiveMD5Size  uint32
	otherMD5Size    uint32
	signatureSize   uint32
}

// readHeader peeks (without consuming) the first four bytes of r. If they
// match the VPK magic word it consumes the magic, reads and validates the
// version word and the version-specific trailer sizes, and returns
// headerPresent = true. Otherwise nothing is consumed and headerPresent is
// false, so the caller can fall back to version-0 inference by parsing the
// index grammar from the very first byte.
func readHeader(r *reader) (hdr dirHeader, headerPresent bool, err error) {
	peeked, err := r.br.Peek(4)
	if err != nil {
		// Fewer than 4 bytes total: cannot be v1/v2. Leave it for v0
		// inference, whose own grammar check will report the truncation.
		return dirHeader{}, false, nil
	}

	if leUint32(peeked) != magicLE {
		return dirHeader{}, false, nil
	}

	// Consume the 4 magic bytes now that we know they are real.
	if err := r.readFull(make([]byte, 4)); err != nil {
		return dirHeader{}, false, err
	}

	version, err := r.ReadU32()
	if err != nil {
		return dirHeader{}, false, err
	}

	switch version {
	case 1:
		indexSize, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		return dirHeader{version: Version1, indexSize: indexSize}, true, nil
	case 2:
		indexSize, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		dataSize, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		archiveMD5Size, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		otherMD5Size, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		signatureSize, err := r.ReadU32()
		if err != nil {
			return dirHeader{}, false, err
		}
		return dirHeader{
			version:        Version2,
			indexSize:      indexSize,
			dataSize:       dataSize,
			archiveMD5Size: archiveMD5Size,
			otherMD5Size:   otherMD5Size,
			signatureSize:  signatureSize,
		}, true, nil
	default:
		return dirHeader{}, false, &UnsupportedVersionError{Version: version}
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// writeHeader serializes hdr's fixed-width fields (magic word included) for
// Version1 or Version2. It is an error to call it with Version0.
func writeHeader(w *writer, hdr dirHeader) error {
	if hdr.version == Version0 {
		panic("vpk: writeHeader called with Version0")
	}
	if err := w.WriteU32(magicLE); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(hdr.version)); err != nil {
		return err
	}
	if err := w.WriteU32(hdr.indexSize); err != nil {
		return err
	}
	if hdr.version == Version1 {
		return nil
	}
	if err := w.WriteU32(hdr.dataSize); err != nil {
		return err
	}
	if err := w.WriteU32(hdr.archiveMD5Size); err != nil {
		return err
	}
	if err := w.WriteU32(hdr.otherMD5Size); err != nil {
		return err
	}
	return w.WriteU32(hdr.signatureSize)
}
