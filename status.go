package sharefs

import "fmt"

// NTStatus is a status code returned by a remote file store, as defined
// in MS-ERREF. The dispatcher never surfaces these to callers directly;
// fatal statuses are converted to errors through statusErr.
type NTStatus uint32

const (
	STATUS_SUCCESS               NTStatus = 0x00000000
	STATUS_PENDING               NTStatus = 0x00000103
	STATUS_UNSUCCESSFUL          NTStatus = 0xC0000001
	STATUS_NO_MORE_FILES         NTStatus = 0x80000006
	STATUS_INVALID_PARAMETER     NTStatus = 0xC000000D
	STATUS_NO_SUCH_FILE          NTStatus = 0xC000000F
	STATUS_END_OF_FILE           NTStatus = 0xC0000011
	STATUS_ACCESS_DENIED         NTStatus = 0xC0000022
	STATUS_OBJECT_NAME_INVALID   NTStatus = 0xC0000033
	STATUS_OBJECT_NAME_NOT_FOUND NTStatus = 0xC0000034
	STATUS_OBJECT_NAME_COLLISION NTStatus = 0xC0000035
	STATUS_OBJECT_PATH_NOT_FOUND NTStatus = 0xC000003A
	STATUS_SHARING_VIOLATION     NTStatus = 0xC0000043
	STATUS_DELETE_PENDING        NTStatus = 0xC0000056
	STATUS_LOGON_FAILURE         NTStatus = 0xC000006D
	STATUS_DISK_FULL             NTStatus = 0xC000007F
	STATUS_FILE_IS_A_DIRECTORY   NTStatus = 0xC00000BA
	STATUS_NOT_SUPPORTED         NTStatus = 0xC00000BB
	STATUS_BAD_NETWORK_NAME      NTStatus = 0xC00000CC
	STATUS_NETWORK_NAME_DELETED  NTStatus = 0xC00000C9
	STATUS_DIRECTORY_NOT_EMPTY   NTStatus = 0xC0000101
	STATUS_NOT_A_DIRECTORY       NTStatus = 0xC0000103
	STATUS_CANCELLED             NTStatus = 0xC0000120
	STATUS_FILE_CLOSED           NTStatus = 0xC0000128
	STATUS_USER_SESSION_DELETED  NTStatus = 0xC0000203
	STATUS_NOT_FOUND             NTStatus = 0xC0000225
)

// IsSuccess returns true if the status indicates success.
func (s NTStatus) IsSuccess() bool {
	return s == STATUS_SUCCESS
}

// IsError returns true if the status indicates an error (high bits set).
func (s NTStatus) IsError() bool {
	return s&0xC0000000 == 0xC0000000
}

// Transient returns true if the status indicates the call is still in
// progress and should be retried rather than treated as failed.
func (s NTStatus) Transient() bool {
	return s == STATUS_PENDING
}

// String returns the status name.
func (s NTStatus) String() string {
	switch s {
	case STATUS_SUCCESS:
		return "STATUS_SUCCESS"
	case STATUS_PENDING:
		return "STATUS_PENDING"
	case STATUS_UNSUCCESSFUL:
		return "STATUS_UNSUCCESSFUL"
	case STATUS_NO_MORE_FILES:
		return "STATUS_NO_MORE_FILES"
	case STATUS_INVALID_PARAMETER:
		return "STATUS_INVALID_PARAMETER"
	case STATUS_NO_SUCH_FILE:
		return "STATUS_NO_SUCH_FILE"
	case STATUS_END_OF_FILE:
		return "STATUS_END_OF_FILE"
	case STATUS_ACCESS_DENIED:
		return "STATUS_ACCESS_DENIED"
	case STATUS_OBJECT_NAME_INVALID:
		return "STATUS_OBJECT_NAME_INVALID"
	case STATUS_OBJECT_NAME_NOT_FOUND:
		return "STATUS_OBJECT_NAME_NOT_FOUND"
	case STATUS_OBJECT_NAME_COLLISION:
		return "STATUS_OBJECT_NAME_COLLISION"
	case STATUS_OBJECT_PATH_NOT_FOUND:
		return "STATUS_OBJECT_PATH_NOT_FOUND"
	case STATUS_SHARING_VIOLATION:
		return "STATUS_SHARING_VIOLATION"
	case STATUS_DELETE_PENDING:
		return "STATUS_DELETE_PENDING"
	case STATUS_LOGON_FAILURE:
		return "STATUS_LOGON_FAILURE"
	case STATUS_DISK_FULL:
		return "STATUS_DISK_FULL"
	case STATUS_FILE_IS_A_DIRECTORY:
		return "STATUS_FILE_IS_A_DIRECTORY"
	case STATUS_NOT_SUPPORTED:
		return "STATUS_NOT_SUPPORTED"
	case STATUS_BAD_NETWORK_NAME:
		return "STATUS_BAD_NETWORK_NAME"
	case STATUS_NETWORK_NAME_DELETED:
		return "STATUS_NETWORK_NAME_DELETED"
	case STATUS_DIRECTORY_NOT_EMPTY:
		return "STATUS_DIRECTORY_NOT_EMPTY"
	case STATUS_NOT_A_DIRECTORY:
		return "STATUS_NOT_A_DIRECTORY"
	case STATUS_CANCELLED:
		return "STATUS_CANCELLED"
	case STATUS_FILE_CLOSED:
		return "STATUS_FILE_CLOSED"
	case STATUS_USER_SESSION_DELETED:
		return "STATUS_USER_SESSION_DELETED"
	case STATUS_NOT_FOUND:
		return "STATUS_NOT_FOUND"
	default:
		return fmt.Sprintf("STATUS(0x%08X)", uint32(s))
	}
}
