package modem

// gpsRawScale converts the modem's fixed point coordinates into degrees
const gpsRawScale = 10.0 / 0x1C71C7

// RawToDegrees converts a raw two's complement coordinate register value into degrees.
func RawToDegrees(raw uint32) float64 {
	return float64(int32(raw)) * gpsRawScale
}
