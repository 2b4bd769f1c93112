package mseed

// Blockette types the decoder interprets or knows the length of.
const (
	Blockette1000 = 1000
	Blockette1001 = 1001
	Blockette2000 = 2000
)

// blocketteHeaderLen is the size of the type and next-offset fields that
// start every blockette.
const blocketteHeaderLen = 4

// blocketteLength returns the length of the blockette of type typ at
// offset off or zero if the length is unknown or cannot be read
// within the record.
func blocketteLength(typ uint16, r *fieldReader, off int) int {
	switch typ {
	case 100:
		return 12
	case 200:
		return 28
	case 201:
		return 36
	case 300:
		return 32
	case 310:
		return 32
	case 320:
		return 28
	case 390:
		return 28
	case 395:
		return 16
	case 400:
		return 16
	case 405:
		return 6
	case 500:
		return 200
	case Blockette1000:
		return 8
	case Blockette1001:
		return 8
	case Blockette2000:
		// Variable length, stored after the blockette header.
		if off+6 > len(r.buf) {
			return 0
		}
		r.seek(off + blocketteHeaderLen)
		return int(r.uint16())
	}
	return 0
}
