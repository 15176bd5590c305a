package dropfile

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/doorkit/doorcore/doorerr"
)

// door32LineCount is the number of fields a DOOR32.SYS file carries.
const door32LineCount = 11

// ParseDoor32 reads a DOOR32.SYS dropfile from path.
func ParseDoor32(path string) (*Info, error) {
	lines, err := readLines(path, door32LineCount)
	if err != nil {
		return nil, err
	}

	comType, err := strconv.Atoi(lines[0])
	if err != nil || comType < 0 || comType > 4 {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: door32: invalid com-type").WithContext("value", lines[0])
	}

	handle, err := strconv.ParseInt(lines[1], 10, 64)
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: door32: invalid socket handle").WithContext("value", lines[1])
	}

	baud, _ := strconv.Atoi(lines[2])
	// line 4 (bbsid) is ignored

	recPos1Based, err := strconv.Atoi(lines[4])
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: door32: invalid rec-pos").WithContext("value", lines[4])
	}

	realName := lines[5]
	alias := lines[6]
	access, _ := strconv.Atoi(lines[7])

	timeLeftMinutes, err := strconv.Atoi(lines[8])
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: door32: invalid time-left").WithContext("value", lines[8])
	}

	emu := EmuASCII
	switch strings.TrimSpace(lines[9]) {
	case "1":
		emu = EmuANSI
	default:
		// 2+ is defined as "ignored -> ANSI"; 0 stays ASCII.
		if n, err := strconv.Atoi(lines[9]); err == nil && n >= 2 {
			emu = EmuANSI
		}
	}

	node, _ := strconv.Atoi(lines[10])

	return &Info{
		ComType:      ComType(comType),
		SocketHandle: handle,
		Baud:         baud,
		Node:         node,
		Access:       access,
		RecPos:       recPos1Based - 1,
		MaxTimeSecs:  timeLeftMinutes * 60,
		Alias:        alias,
		RealName:     realName,
		Emulation:    emu,
	}, nil
}

// readLines reads every line of path (CRLF tolerated), erroring if
// fewer than want are present.
func readLines(path string, want int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeDropfileMissing, "dropfile: open", err).WithContext("path", path)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, doorerr.Wrap(doorerr.CodeDropfileMalformed, "dropfile: read", err).WithContext("path", path)
	}
	if len(lines) < want {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: too few lines").
			WithContext("path", path).WithContext("want", want).WithContext("got", len(lines))
	}
	return lines, nil
}
