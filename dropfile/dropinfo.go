// Package dropfile parses the two dropfile formats a BBS host writes
// before launching a door: DOOR32.SYS and the INFO.* family. Grounded
// on the line-oriented, doorerr-wrapped read style used for config/data
// loading elsewhere in the corpus (MongooseMoo-barn/conformance/loader.go's
// os.ReadFile-then-parse shape), adapted from YAML to these fixed-line
// legacy formats.
package dropfile

// ComType enumerates the framing a DropInfo selects for the Connection.
type ComType int

const (
	ComLocal ComType = iota
	ComSerial
	ComTelnet
	ComRlogin
	ComWebSocket
)

// Emulation is the terminal capability the dropfile declares.
type Emulation int

const (
	EmuASCII Emulation = iota
	EmuANSI
)

// Info is the populated, read-only configuration a dropfile yields.
type Info struct {
	ComType      ComType
	SocketHandle int64 // platform-native descriptor; -1 for local
	Baud         int
	Node         int
	Access       int
	RecPos       int // 0-based
	MaxTimeSecs  int
	Alias        string
	RealName     string
	Emulation    Emulation

	// LORD-specific fields, populated only by INFO.* dropfiles.
	Fairy      bool
	Registered bool
	Clean      bool
}
