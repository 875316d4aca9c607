// Package handoff exposes a session to other local processes over a
// loopback line protocol. Each request is one line, `<cmd> [args...]`, and
// gets one reply line: "ok", "err <reason>" or a payload.
package handoff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/security"
)

// Protocol errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

// Command names.
const (
	CmdColorIndex    = "cidx"
	CmdStartChoice   = "star"
	CmdChoiceStatus  = "stat"
	CmdImportProject = "iset"
	CmdExportProject = "oset"
	CmdImportPalette = "idpt"
	CmdExportPalette = "odpt"
	CmdData          = "data"
	CmdSession       = "sess"
	CmdExit          = "exit"
)

// Replies.
const (
	ReplyOK  = "ok"
	replyErr = "err "
)

// lengthWidth is the number of decimal digits prefixing every data field.
const lengthWidth = 6

// maxFieldLen is the largest field a length prefix can describe.
const maxFieldLen = 999999

// Exchange names a file exchange request.
type Exchange string

const (
	ImportProject Exchange = CmdImportProject
	ExportProject Exchange = CmdExportProject
	ImportPalette Exchange = CmdImportPalette
	ExportPalette Exchange = CmdExportPalette
)

// IsProject reports whether the exchange concerns a project file.
func (e Exchange) IsProject() bool {
	return e == ImportProject || e == ExportProject
}

// Request is a validated file exchange asked for by a peer.
type Request struct {
	Exchange Exchange
	Path     string
}

// errorReply formats err as a protocol error line.
func errorReply(err error) string {
	return replyErr + strings.ReplaceAll(err.Error(), "\n", " ")
}

// IsError reports whether a reply line is an error reply.
func IsError(reply string) bool {
	return strings.HasPrefix(reply, replyErr)
}

// splitCommand returns the lowercased command and the raw argument text.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

// parseColorIndex parses "i r g b". Channels outside 0-255 are clamped.
func parseColorIndex(args string) (int, [3]uint8, error) {
	var rgb [3]uint8
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return 0, rgb, fmt.Errorf("%w: cidx expects 4 values, got %d", ErrBadArguments, len(fields))
	}
	nums := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, rgb, fmt.Errorf("%w: %q is not an integer", ErrBadArguments, f)
		}
		nums[i] = n
	}
	if nums[0] < 0 || nums[0] >= harmony.Slots {
		return 0, rgb, fmt.Errorf("%w: index %d out of range", ErrBadArguments, nums[0])
	}
	for i, n := range nums[1:] {
		rgb[i] = security.SafeUint8(n)
	}
	return nums[0], rgb, nil
}

// EncodeData builds the data payload: the rule, the activated index, the
// five anchor hexes, the column count, the board hexes joined by spaces and,
// for a literal board, the names joined by tabs. Every field is prefixed by
// its byte length as six zero-padded digits.
func EncodeData(rule harmony.Rule, activated int, anchors [harmony.Slots]string, board grid.Grid) string {
	fields := make([]string, 0, harmony.Slots+5)
	fields = append(fields, string(rule), strconv.Itoa(activated))
	fields = append(fields, anchors[:]...)
	fields = append(fields, strconv.Itoa(board.Col), strings.Join(board.Hexes(), " "))
	if board.Names != nil {
		fields = append(fields, strings.Join(board.Names, "\t"))
	}

	var b strings.Builder
	for _, f := range fields {
		if len(f) > maxFieldLen {
			f = f[:maxFieldLen]
		}
		fmt.Fprintf(&b, "%0*d%s", lengthWidth, len(f), f)
	}
	return b.String()
}

// DecodeFields splits a data payload back into its fields.
func DecodeFields(payload string) ([]string, error) {
	var fields []string
	for len(payload) > 0 {
		if len(payload) < lengthWidth {
			return nil, fmt.Errorf("%w: truncated length prefix", ErrBadArguments)
		}
		n, err := strconv.Atoi(payload[:lengthWidth])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: malformed length prefix %q", ErrBadArguments, payload[:lengthWidth])
		}
		payload = payload[lengthWidth:]
		if n > len(payload) {
			return nil, fmt.Errorf("%w: field of %d bytes exceeds payload", ErrBadArguments, n)
		}
		fields = append(fields, payload[:n])
		payload = payload[n:]
	}
	return fields, nil
}
