package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/robalobadob/memorymatch/internal/game"
	"github.com/robalobadob/memorymatch/internal/session"
)

// termView renders display updates as plain text lines. Ticks are only
// remembered; printing them would bury the prompt.
type termView struct {
	mu      sync.Mutex
	out     io.Writer
	elapsed string
}

func newTermView(out io.Writer) *termView {
	return &termView{out: out, elapsed: game.FormatElapsed(0)}
}

func (v *termView) ShowElapsed(s string) {
	v.mu.Lock()
	v.elapsed = s
	v.mu.Unlock()
}

func (v *termView) Elapsed() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.elapsed
}

func (v *termView) ShowFinal(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.elapsed = s
	fmt.Fprintf(v.out, "cleared the board in %s\n", s)
}

func (v *termView) ShowMessage(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, msg)
}

func (v *termView) ShowLeaderboard(entries []session.RankedEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(entries) == 0 {
		fmt.Fprintln(v.out, "leaderboard is empty")
		return
	}
	fmt.Fprintln(v.out, "leaderboard:")
	for i, e := range entries {
		fmt.Fprintf(v.out, "%3d. %-24s %s\n", i+1, e.Username, game.FormatElapsed(e.ElapsedMs))
	}
}

func (v *termView) ShowBoard(snap game.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.out, renderBoard(snap))
}

// renderBoard lays cards out in a near-square grid. Each cell shows the
// position, then "??" face down, the value face up, or "--" once matched.
func renderBoard(snap game.Snapshot) string {
	n := len(snap.Cards)
	if n == 0 {
		return ""
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))

	var b strings.Builder
	for i, c := range snap.Cards {
		var face string
		switch c.Face {
		case game.FaceUp:
			face = fmt.Sprintf("%2d", c.Value)
		case game.FaceMatched:
			face = "--"
		default:
			face = "??"
		}
		fmt.Fprintf(&b, "[%2d:%s]", c.Position, face)
		if (i+1)%cols == 0 || i == n-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

var _ session.View = (*termView)(nil)
