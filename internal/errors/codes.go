package errors

// 设备固件约定的错误码文案。码值由固件定义，不可变更。
const (
	DescLibTransport = "Face library transport error"
	DescUnknown      = "Unknown device error"
)

// deviceCodeTable 已知设备错误码 → 可读文案
var deviceCodeTable = map[int64]string{
	-101: "The file name ID is the same",
	-102: "The face library is full",
	-103: "Operation timeout",
	-104: "Parameter error",
	-105: "Device storage is full",
	-106: "The picture quality is too poor",
	-107: "The picture dimensions are wrong",
	-108: "Face detection failed",
	-109: "The device is busy",
	-110: "Admin password error",
	-111: "The user does not exist",
	-112: "The user list does not exist",
	-113: "Firmware download failed",
	-114: "Disk format failed",
}

// DescribeDeviceCode 翻译设备错误码。
// 未知的 -1..-100 与 1..100 归为库传输错误，其余未知码归为Unknown。
func DescribeDeviceCode(code int64) string {
	if desc, ok := deviceCodeTable[code]; ok {
		return desc
	}
	if code >= -100 && code <= -1 {
		return DescLibTransport
	}
	if code >= 1 && code <= 100 {
		return DescLibTransport
	}
	return DescUnknown
}
