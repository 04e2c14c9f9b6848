package errorx

type Code int

const (
	// Validation codes
	InvalidDuration Code = 100001
	InvalidArgument Code = 100002
	NotFound        Code = 100003
	Forbidden       Code = 100004
	AlreadyResolved Code = 100005
	NotResolvedYet  Code = 100006
	DuplicateEntry  Code = 100007

	// Persistence codes
	StoreUnavailable Code = 200001
)

var (
	ErrInvalidDuration  = Error{Code: InvalidDuration, Message: "invalid duration"}
	ErrInvalidArgument  = Error{Code: InvalidArgument, Message: "invalid argument"}
	ErrNotFound         = Error{Code: NotFound, Message: "not found"}
	ErrForbidden        = Error{Code: Forbidden, Message: "forbidden"}
	ErrAlreadyResolved  = Error{Code: AlreadyResolved, Message: "already resolved"}
	ErrNotResolvedYet   = Error{Code: NotResolvedYet, Message: "not resolved yet"}
	ErrDuplicateEntry   = Error{Code: DuplicateEntry, Message: "duplicate entry"}
	ErrStoreUnavailable = Error{Code: StoreUnavailable, Message: "store unavailable"}
)

func (c Code) String() string {
	switch c {
	case InvalidDuration:
		return "InvalidDuration"
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case Forbidden:
		return "Forbidden"
	case AlreadyResolved:
		return "AlreadyResolved"
	case NotResolvedYet:
		return "NotResolvedYet"
	case DuplicateEntry:
		return "DuplicateEntry"
	case StoreUnavailable:
		return "StoreUnavailable"
	default:
		return "Unknown"
	}
}
