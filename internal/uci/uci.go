// Package uci adapts the engine to the Universal Chess Interface
// text protocol on stdin/stdout.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
	"github.com/peregrine-chess/peregrine/internal/book"
	"github.com/peregrine-chess/peregrine/internal/engine"
	"github.com/peregrine-chess/peregrine/internal/tablebase"
)

const (
	defaultHashMB = 64
	minHashMB     = 1
	maxHashMB     = 4096
)

// UCI implements the protocol loop. Unknown and malformed commands
// are ignored, as the protocol requires.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	log      zerolog.Logger

	// Game history feeding repetition detection.
	hashes   []uint64
	lastMove board.Move

	bookPath   string
	syzygyPath string
	tbCache    *tablebase.CachedProber

	searching  bool
	searchDone chan struct{}
}

// New creates a protocol handler around an engine.
func New(eng *engine.Engine, log zerolog.Logger) *UCI {
	pos := board.NewPosition()
	return &UCI{
		engine:   eng,
		position: pos,
		log:      log,
		hashes:   []uint64{pos.Hash},
	}
}

// Run reads commands until stdin closes or "quit" arrives.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return
		case "setoption":
			u.handleSetOption(args)
		// Debug commands.
		case "d":
			fmt.Println(u.position.String())
			fmt.Printf("FEN: %s\n", u.position.FEN())
			fmt.Printf("Hash: %016x\n", u.position.Hash)
		case "eval":
			fmt.Printf("eval %d\n", u.engine.Evaluate(u.position))
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Println("id name Peregrine")
	fmt.Println("id author The Peregrine authors")
	fmt.Println()
	fmt.Printf("option name Hash type spin default %d min %d max %d\n", defaultHashMB, minHashMB, maxHashMB)
	fmt.Println("option name Threads type spin default 1 min 1 max 1")
	fmt.Println("option name MoveOverhead type spin default 30 min 0 max 5000")
	fmt.Println("option name NodeLimit type spin default 0 min 0 max 1000000000000")
	fmt.Println("option name BookPath type string default <empty>")
	fmt.Println("option name SyzygyPath type string default <empty>")
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.waitForSearch()
	u.engine.NewGame()
	u.position = board.NewPosition()
	u.hashes = []uint64{u.position.Hash}
	u.lastMove = board.NoMove
}

// handlePosition sets up a position. Formats:
//
//	position startpos [moves e2e4 e7e5 ...]
//	position fen <fen> [moves e2e4 ...]
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := -1
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}
	moveStart := len(args)
	if movesAt >= 0 {
		moveStart = movesAt + 1
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		fenEnd := len(args)
		if movesAt >= 0 {
			fenEnd = movesAt
		}
		parsed, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			u.log.Warn().Err(err).Msg("ignoring position command")
			return
		}
		pos = parsed
	default:
		return
	}

	hashes := []uint64{pos.Hash}
	last := board.NoMove
	for _, s := range args[moveStart:] {
		m, err := pos.ParseMove(s)
		if err != nil {
			u.log.Warn().Str("move", s).Err(err).Msg("ignoring position command")
			return
		}
		pos.MakeMove(m)
		hashes = append(hashes, pos.Hash)
		last = m
	}

	u.position = pos
	u.hashes = hashes
	u.lastMove = last
}

// handleGo starts a search in the background and prints bestmove when
// it completes.
func (u *UCI) handleGo(args []string) {
	u.waitForSearch()

	limits := u.parseLimits(args)

	u.engine.SetHistory(u.hashes, u.lastMove)

	// The search goroutine must not touch u.position: the protocol
	// loop may replace it while the search runs. Everything below
	// works on this snapshot.
	pos := u.position.Copy()
	u.engine.OnInfo = func(info engine.SearchInfo) {
		fmt.Println(infoLine(pos, info))
	}

	u.searching = true
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		best := u.engine.BestMove(pos, limits)
		fmt.Printf("bestmove %s\n", best)
	}()
}

// parseLimits reads the "go" arguments. Unknown tokens are skipped.
func (u *UCI) parseLimits(args []string) engine.Limits {
	var limits engine.Limits

	ms := func(i int) time.Duration {
		if i >= len(args) {
			return 0
		}
		v, _ := strconv.Atoi(args[i])
		return time.Duration(v) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime":
			limits.Time[board.White] = ms(i + 1)
			i++
		case "btime":
			limits.Time[board.Black] = ms(i + 1)
			i++
		case "winc":
			limits.Inc[board.White] = ms(i + 1)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(i + 1)
			i++
		case "movestogo":
			if i+1 < len(args) {
				limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			limits.MoveTime = ms(i + 1)
			i++
		case "depth":
			if i+1 < len(args) {
				limits.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				limits.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "infinite":
			limits.Infinite = true
		}
	}

	return limits
}

// infoLine renders one progress report. PV moves are replayed against
// the position the search started from, so an aborted iteration can
// never print an illegal line.
func infoLine(root *board.Position, info engine.SearchInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d", info.Depth)

	if info.Score > engine.MateScore-engine.MaxPly {
		fmt.Fprintf(&sb, " score mate %d", (engine.MateScore-info.Score+1)/2)
	} else if info.Score < -(engine.MateScore - engine.MaxPly) {
		fmt.Fprintf(&sb, " score mate %d", -(engine.MateScore+info.Score+1)/2)
	} else {
		fmt.Fprintf(&sb, " score cp %d", info.Score)
	}

	fmt.Fprintf(&sb, " nodes %d time %d", info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		fmt.Fprintf(&sb, " nps %d", uint64(float64(info.Nodes)/info.Time.Seconds()))
	}
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}

	if len(info.PV) > 0 {
		pos := root.Copy()
		var pv []string
		for _, m := range info.PV {
			legal := pos.LegalMoves()
			found := false
			for i := 0; i < legal.Len(); i++ {
				if legal.At(i) == m {
					found = true
					break
				}
			}
			if !found {
				break
			}
			pv = append(pv, m.String())
			pos.MakeMove(m)
		}
		if len(pv) > 0 {
			sb.WriteString(" pv " + strings.Join(pv, " "))
		}
	}

	return sb.String()
}

func (u *UCI) handleStop() {
	if u.searching {
		u.engine.Stop()
		u.waitForSearch()
	}
}

func (u *UCI) waitForSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
	u.searching = false
}

func (u *UCI) handleQuit() {
	u.handleStop()
	if u.tbCache != nil {
		if err := u.tbCache.Close(); err != nil {
			u.log.Warn().Err(err).Msg("closing tablebase cache")
		}
	}
}

// handleSetOption processes "setoption name <name> [value <value>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	var dst *string
	for _, arg := range args {
		switch arg {
		case "name":
			dst = &name
		case "value":
			dst = &value
		default:
			if dst == nil {
				continue
			}
			if *dst != "" {
				*dst += " "
			}
			*dst += arg
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < minHashMB {
			return
		}
		if mb > maxHashMB {
			mb = maxHashMB
		}
		u.engine.ResizeHash(mb)
	case "threads":
		// Single-threaded search; the option exists so GUIs that
		// always set it do not fail.
	case "moveoverhead":
		msec, err := strconv.Atoi(value)
		if err != nil || msec < 0 {
			return
		}
		u.engine.SetMoveOverhead(time.Duration(msec) * time.Millisecond)
	case "nodelimit":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return
		}
		u.engine.SetNodeLimit(n)
	case "bookpath":
		u.bookPath = value
		u.loadBook()
	case "syzygypath":
		u.syzygyPath = value
		u.initTablebase()
	}
}

// loadBook loads the Polyglot book. A missing or unreadable file is
// logged and the engine simply plays without a book.
func (u *UCI) loadBook() {
	if u.bookPath == "" || u.bookPath == "<empty>" {
		u.engine.SetBook(nil)
		return
	}
	b, err := book.Load(u.bookPath)
	if err != nil {
		u.log.Warn().Str("path", u.bookPath).Err(err).Msg("book unavailable")
		u.engine.SetBook(nil)
		return
	}
	u.log.Info().Str("path", u.bookPath).Int("positions", b.Size()).Msg("book loaded")
	u.engine.SetBook(b)
}

// tbOracle narrows a Prober to the root-move lookup the engine uses.
type tbOracle struct {
	p tablebase.Prober
}

func (o tbOracle) ProbeRoot(pos *board.Position) (board.Move, bool) {
	r := o.p.ProbeRoot(pos)
	return r.Move, r.Found
}

func (o tbOracle) MaxPieces() int { return o.p.MaxPieces() }

// initTablebase wires the remote prober with an on-disk probe cache
// rooted at the configured path. Failures degrade to the uncached
// prober; probing itself already degrades to silent misses.
func (u *UCI) initTablebase() {
	if u.tbCache != nil {
		u.tbCache.Close()
		u.tbCache = nil
	}
	if u.syzygyPath == "" || u.syzygyPath == "<empty>" {
		u.engine.SetTablebase(nil)
		return
	}

	remote := tablebase.NewLichessProber(u.log)
	cached, err := tablebase.NewCachedProber(remote, u.syzygyPath, u.log)
	if err != nil {
		u.log.Warn().Str("path", u.syzygyPath).Err(err).Msg("tablebase cache unavailable")
		u.engine.SetTablebase(tbOracle{remote})
		return
	}
	u.tbCache = cached
	u.engine.SetTablebase(tbOracle{cached})
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
