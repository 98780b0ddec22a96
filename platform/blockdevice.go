package platform

// SectorSize is the block device's addressing granularity (spec §6): every
// write spans whole sectors via read-modify-write on the cached image.
const SectorSize = 512

// BlockDevice is a RAM-cached block device. WriteBytes is implemented by
// copying the overlapping portion of each affected sector, then pushing
// the whole sector back to backing (if any) — matching the original PATA
// driver's per-sector read-modify-write behavior described in spec §5/§6.
//
// BlockDevice is not re-entrant: spec §9's Open Question notes that two
// runtimes writing overlapping sectors are only as safe as the cooperative
// scheduling points permit, since no primitive yields mid-write. Callers
// must not call WriteBytes/ReadByte from more than one goroutine
// concurrently without external serialization.
type BlockDevice struct {
	image   []byte
	backing Backing // optional; nil means "no persistent storage"
}

// Backing is the optional persistent store a BlockDevice pushes completed
// sector writes to. A host with no persistent storage passes nil to
// NewBlockDevice, making WriteBytes a RAM-only operation.
type Backing interface {
	WriteSector(sectorIndex int, sector []byte) error
}

// NewBlockDevice constructs a block device backed by image (copied), with
// an optional Backing for durability. size need not be a multiple of
// SectorSize, but every write still spans whole sectors internally.
func NewBlockDevice(image []byte, backing Backing) *BlockDevice {
	buf := make([]byte, len(image))
	copy(buf, image)
	return &BlockDevice{image: buf, backing: backing}
}

// Size reports the device's total byte size.
func (d *BlockDevice) Size() int64 { return int64(len(d.image)) }

// ReadByte returns the byte at offset, or a negative value if offset is
// out of range.
func (d *BlockDevice) ReadByte(offset int64) int {
	if offset < 0 || offset >= int64(len(d.image)) {
		return -1
	}
	return int(d.image[offset])
}

// WriteBytes writes data at offset, sector by sector: each affected sector
// is read, the overlapping span is overlaid, and the whole sector is
// written back (to the RAM image always, and to Backing if set). Returns
// the number of bytes written, or a negative value if the write would run
// past the end of the device.
func (d *BlockDevice) WriteBytes(offset int64, data []byte) int {
	if offset < 0 || offset+int64(len(data)) > int64(len(d.image)) {
		return -1
	}
	if len(data) == 0 {
		return 0
	}

	firstSector := offset / SectorSize
	lastSector := (offset + int64(len(data)) - 1) / SectorSize

	for sec := firstSector; sec <= lastSector; sec++ {
		secStart := sec * SectorSize
		secEnd := secStart + SectorSize
		if secEnd > int64(len(d.image)) {
			secEnd = int64(len(d.image))
		}
		sector := d.image[secStart:secEnd]

		// Overlay the span of data that falls within this sector.
		spanStart := offset
		if spanStart < secStart {
			spanStart = secStart
		}
		spanEnd := offset + int64(len(data))
		if spanEnd > secEnd {
			spanEnd = secEnd
		}
		copy(sector[spanStart-secStart:], data[spanStart-offset:spanEnd-offset])

		if d.backing != nil {
			if err := d.backing.WriteSector(int(sec), sector); err != nil {
				return -1
			}
		}
	}

	return len(data)
}
