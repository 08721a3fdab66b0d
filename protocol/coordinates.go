package protocol

// 坐标字段按大端位序打包，每个轴 10 位（0–1023）

const coordMask = 0x3ff

// PackCoordinates 把单个地块与方向打包为 3 字节
func PackCoordinates(x, y uint16, dir uint8) [3]byte {
	v := uint32(x&coordMask)<<14 | uint32(y&coordMask)<<4 | uint32(dir&0x0f)
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

func UnpackCoordinates(b [3]byte) (x, y uint16, dir uint8) {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return uint16(v>>14) & coordMask, uint16(v>>4) & coordMask, uint8(v & 0x0f)
}

// PackCoordinatePair 把起点与终点打包为 5 字节
func PackCoordinatePair(srcX, srcY, dstX, dstY uint16) [5]byte {
	v := uint64(srcX&coordMask)<<30 |
		uint64(srcY&coordMask)<<20 |
		uint64(dstX&coordMask)<<10 |
		uint64(dstY&coordMask)
	return [5]byte{byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func UnpackCoordinatePair(b [5]byte) (srcX, srcY, dstX, dstY uint16) {
	v := uint64(b[0])<<32 | uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4])
	return uint16(v>>30) & coordMask,
		uint16(v>>20) & coordMask,
		uint16(v>>10) & coordMask,
		uint16(v) & coordMask
}
