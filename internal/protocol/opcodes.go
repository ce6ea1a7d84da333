package protocol

// RPC operation codes, as issued on the control connection. SANE defines
// more codes than are listed here (option introspection, CONTROL_OPTION,
// CANCEL, AUTHORIZE); this client speaks only the subset needed to
// enumerate devices, open one, and run an acquisition, per this module's
// scope.
const (
	opInit          int32 = 0
	opGetDevices    int32 = 1
	opOpen          int32 = 2
	opClose         int32 = 3
	opGetParameters int32 = 6
	opStart         int32 = 7
	opExit          int32 = 10
)
