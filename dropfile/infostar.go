package dropfile

import (
	"strconv"
	"strings"

	"github.com/doorkit/doorcore/doorerr"
)

const infoStarLineCount = 14

// ParseInfoStar reads an INFO.* family dropfile from path.
func ParseInfoStar(path string) (*Info, error) {
	lines, err := readLines(path, infoStarLineCount)
	if err != nil {
		return nil, err
	}

	recPos, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: infostar: invalid rec-pos").WithContext("value", lines[0])
	}

	emu := EmuASCII
	if strings.TrimSpace(lines[1]) == "3" {
		emu = EmuANSI
	}
	// line 3 (RIP) is ignored

	fairy := strings.EqualFold(strings.TrimSpace(lines[3]), "FAIRY YES")

	timeLeftMinutes, err := strconv.Atoi(strings.TrimSpace(lines[4]))
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: infostar: invalid time-left").WithContext("value", lines[4])
	}

	alias := lines[5]
	realName := lines[6]
	if lastName := strings.TrimSpace(lines[7]); lastName != "" {
		realName = strings.TrimSpace(realName) + " " + lastName
	}

	handle, err := strconv.ParseInt(strings.TrimSpace(lines[8]), 10, 64)
	if err != nil {
		return nil, doorerr.New(doorerr.CodeDropfileMalformed, "dropfile: infostar: invalid handle").WithContext("value", lines[8])
	}
	baud, _ := strconv.Atoi(strings.TrimSpace(lines[9]))
	// line 11 (port-baud) and line 12 (fossil/internal/telnet) are ignored

	registered := strings.EqualFold(strings.TrimSpace(lines[12]), "REGISTERED")
	clean := strings.EqualFold(strings.TrimSpace(lines[13]), "CLEAN MODE ON")

	return &Info{
		ComType:      ComTelnet, // INFO.* dropfiles predate ComType selection; callers override via -C
		SocketHandle: handle,
		Baud:         baud,
		RecPos:       recPos,
		MaxTimeSecs:  timeLeftMinutes * 60,
		Alias:        alias,
		RealName:     realName,
		Emulation:    emu,
		Fairy:        fairy,
		Registered:   registered,
		Clean:        clean,
	}, nil
}
