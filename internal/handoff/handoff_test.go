package handoff

import (
	"bufio"
	"context"
	"math/rand"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/security"
	"github.com/jmylchreest/rickrack/internal/session"
)

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	sess := session.New(colour.MustParseHex("FF0000"), harmony.RuleTriad, session.Options{
		Rand: rand.New(rand.NewSource(1)),
	})
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	srv, err := New(sess, opts)
	require.NoError(t, err)
	return srv
}

func TestNewRejectsNonLoopback(t *testing.T) {
	sess := session.New(colour.White(), harmony.RuleCustom, session.Options{})
	_, err := New(sess, Options{Addr: "0.0.0.0:23333"})
	assert.ErrorIs(t, err, security.ErrNotLoopback)

	_, err = New(sess, Options{Addr: "localhost:0"})
	assert.NoError(t, err)
}

func TestHandleColorIndex(t *testing.T) {
	srv := newServer(t, Options{})

	reply, exit := srv.Handle("cidx 0 0 0 255")
	assert.Equal(t, ReplyOK, reply)
	assert.False(t, exit)

	srv.WithSession(func(s *session.Session) {
		assert.InDelta(t, 240, s.Slots()[0].H(), 0.5)
		assert.Equal(t, 2, s.History().Len(), "cidx commits to history")
	})

	reply, _ = srv.Handle("CIDX 1 -20 300 0")
	assert.Equal(t, ReplyOK, reply, "channels are clamped")
}

func TestHandleRejectsBadArguments(t *testing.T) {
	srv := newServer(t, Options{})
	for _, line := range []string{
		"cidx",
		"cidx 1 2 3",
		"cidx 5 0 0 0",
		"cidx -1 0 0 0",
		"cidx a 0 0 0",
	} {
		t.Run(line, func(t *testing.T) {
			reply, exit := srv.Handle(line)
			assert.True(t, IsError(reply), reply)
			assert.Contains(t, reply, ErrBadArguments.Error())
			assert.False(t, exit)
		})
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	srv := newServer(t, Options{})
	reply, _ := srv.Handle("frob 1")
	assert.True(t, IsError(reply))
	assert.Contains(t, reply, ErrUnknownCommand.Error())

	reply, _ = srv.Handle("   ")
	assert.True(t, IsError(reply))
}

func TestChoiceLifecycle(t *testing.T) {
	srv := newServer(t, Options{})

	reply, _ := srv.Handle("stat")
	assert.Equal(t, "0", reply)

	reply, _ = srv.Handle("star")
	assert.Equal(t, ReplyOK, reply)
	assert.True(t, srv.Choosing())

	reply, _ = srv.Handle("stat")
	assert.Equal(t, "1", reply)

	srv.ResolveChoice()
	reply, _ = srv.Handle("stat")
	assert.Equal(t, "0", reply)
}

func TestFileExchange(t *testing.T) {
	dir := t.TempDir()
	var got []Request
	srv := newServer(t, Options{OnRequest: func(r Request) { got = append(got, r) }})

	project := filepath.Join(dir, "my project.dps")
	palette := filepath.Join(dir, "colors.gpl")

	tests := []struct {
		line string
		ok   bool
	}{
		{"iset " + project, true},
		{"oset " + project, true},
		{"idpt " + palette, true},
		{"odpt " + palette, true},
		{"iset " + palette, false},
		{"idpt " + project, false},
		{"oset " + filepath.Join(dir, "missing", "a.dps"), false},
		{"odpt", false},
	}
	for _, tt := range tests {
		reply, _ := srv.Handle(tt.line)
		if tt.ok {
			assert.Equal(t, ReplyOK, reply, tt.line)
		} else {
			assert.True(t, IsError(reply), tt.line)
		}
	}

	require.Len(t, got, 4)
	assert.Equal(t, Request{Exchange: ImportProject, Path: project}, got[0])

	path, ok := srv.Pending(ExportPalette)
	assert.True(t, ok)
	assert.Equal(t, palette, path)
	_, ok = srv.Pending(ExportPalette)
	assert.False(t, ok, "pending requests are consumed")
}

func TestDataPayload(t *testing.T) {
	srv := newServer(t, Options{})
	srv.WithSession(func(s *session.Session) {
		s.SetActivated(2)
		s.SetGridValues(grid.Values{Col: 3, CTP: "hsv", SumFactor: 1, DimFactor: 1, AssistFactor: 0.5})
	})

	reply, _ := srv.Handle("data")
	fields, err := DecodeFields(reply)
	require.NoError(t, err)
	require.Len(t, fields, 9)

	assert.Equal(t, "triad", fields[0])
	assert.Equal(t, "2", fields[1])
	assert.Equal(t, "FF0000", fields[2])
	assert.Equal(t, "3", fields[7])
	assert.Len(t, strings.Fields(fields[8]), 9)
	assert.Equal(t, "000005", reply[:6])
}

func TestDataPayloadWithLiteralNames(t *testing.T) {
	srv := newServer(t, Options{})
	srv.WithSession(func(s *session.Session) {
		s.SetGridValues(grid.Values{Col: 2, CTP: "hsv", SumFactor: 1, DimFactor: 1, AssistFactor: 0.5})
		s.SetGridList(grid.Literal{Hexes: []string{"010203", "0A0B0C"}, Names: []string{"one", "two"}})
	})

	reply, _ := srv.Handle("data")
	fields, err := DecodeFields(reply)
	require.NoError(t, err)
	require.Len(t, fields, 10)
	assert.Equal(t, "010203 0A0B0C FFFFFF FFFFFF", fields[8])
	assert.Equal(t, "one\ttwo\t\t", fields[9])
}

func TestDecodeFieldsRejectsMalformed(t *testing.T) {
	for _, payload := range []string{"00", "00000Xabc", "000010abc"} {
		_, err := DecodeFields(payload)
		assert.ErrorIs(t, err, ErrBadArguments, payload)
	}
	fields, err := DecodeFields("")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestServeOverTCP(t *testing.T) {
	srv := newServer(t, Options{})
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	send := func(line string) string {
		t.Helper()
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		reply, err := r.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSuffix(reply, "\n")
	}

	id := send("sess")
	srv.WithSession(func(s *session.Session) { assert.Equal(t, s.ID.String(), id) })
	assert.Equal(t, ReplyOK, send("cidx 2 0 255 0"))
	assert.Equal(t, ReplyOK, send("exit"))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "Serve did not stop after exit")
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv := newServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "Serve did not stop after cancel")
	}
}
