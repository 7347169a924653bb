package smb2

import (
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Status represents an NT_STATUS code carried in SMB2 responses.
//
// NT_STATUS codes are 32-bit values divided into:
//   - Severity (bits 30-31): 00=Success, 01=Informational, 10=Warning, 11=Error
//   - Customer (bit 29): 0=Microsoft-defined, 1=Customer-defined
//   - Facility (bits 16-28): Component that generated the status
//   - Code (bits 0-15): Status code within the facility
//
// [MS-ERREF] Section 2.3
type Status uint32

const (
	StatusSuccess                Status = 0x00000000
	StatusPending                Status = 0x00000103
	StatusNotifyEnumDir          Status = 0x0000010C
	StatusBufferOverflow         Status = 0x80000005
	StatusNoMoreFiles            Status = 0x80000006
	StatusInvalidParameter       Status = 0xC000000D
	StatusNoSuchFile             Status = 0xC000000F
	StatusEndOfFile              Status = 0xC0000011
	StatusMoreProcessingRequired Status = 0xC0000016
	StatusAccessDenied           Status = 0xC0000022
	StatusObjectNameNotFound     Status = 0xC0000034
	StatusObjectNameCollision    Status = 0xC0000035
	StatusObjectPathNotFound     Status = 0xC000003A
	StatusSharingViolation       Status = 0xC0000043
	StatusLogonFailure           Status = 0xC000006D
	StatusNotSupported           Status = 0xC00000BB
	StatusBadNetworkName         Status = 0xC00000CC
	StatusRequestNotAccepted     Status = 0xC00000D0
	StatusCancelled              Status = 0xC0000120
	StatusFileClosed             Status = 0xC0000128
	StatusUserSessionDeleted     Status = 0xC0000203
	StatusNetworkSessionExpired  Status = 0xC000035C
)

var statusNames = map[Status]string{
	StatusSuccess:                "STATUS_SUCCESS",
	StatusPending:                "STATUS_PENDING",
	StatusNotifyEnumDir:          "STATUS_NOTIFY_ENUM_DIR",
	StatusBufferOverflow:         "STATUS_BUFFER_OVERFLOW",
	StatusNoMoreFiles:            "STATUS_NO_MORE_FILES",
	StatusInvalidParameter:       "STATUS_INVALID_PARAMETER",
	StatusNoSuchFile:             "STATUS_NO_SUCH_FILE",
	StatusEndOfFile:              "STATUS_END_OF_FILE",
	StatusMoreProcessingRequired: "STATUS_MORE_PROCESSING_REQUIRED",
	StatusAccessDenied:           "STATUS_ACCESS_DENIED",
	StatusObjectNameNotFound:     "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision:    "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathNotFound:     "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusSharingViolation:       "STATUS_SHARING_VIOLATION",
	StatusLogonFailure:           "STATUS_LOGON_FAILURE",
	StatusNotSupported:           "STATUS_NOT_SUPPORTED",
	StatusBadNetworkName:         "STATUS_BAD_NETWORK_NAME",
	StatusRequestNotAccepted:     "STATUS_REQUEST_NOT_ACCEPTED",
	StatusCancelled:              "STATUS_CANCELLED",
	StatusFileClosed:             "STATUS_FILE_CLOSED",
	StatusUserSessionDeleted:     "STATUS_USER_SESSION_DELETED",
	StatusNetworkSessionExpired:  "STATUS_NETWORK_SESSION_EXPIRED",
}

// Statuses names the known status codes for the header's status field.
var Statuses = func() *binstruct.Enum {
	table := make(map[string]uint64, len(statusNames))
	for s, name := range statusNames {
		table[name] = uint64(s)
	}
	return binstruct.NewEnum(table)
}()

// StatusType is the 32-bit status field.
var StatusType = binstruct.EnumOf(4, binenc.LittleEndian, Statuses)

// String returns a human-readable name for the status code.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%08X", uint32(s))
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return (uint32(s) & 0x80000000) == 0
}

// IsError returns true if the status indicates an error.
// NT_STATUS error codes have severity 11 (bits 30-31 are both set).
func (s Status) IsError() bool {
	return (uint32(s) & 0xC0000000) == 0xC0000000
}

// IsWarning returns true if the status indicates a warning.
func (s Status) IsWarning() bool {
	return (uint32(s) & 0xC0000000) == 0x80000000
}

// Severity returns the severity level (0-3) of the status.
func (s Status) Severity() int {
	return int((uint32(s) >> 30) & 0x3)
}
