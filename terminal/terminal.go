// Package terminal draws games on an ANSI terminal in raw mode.
package terminal

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"tetrisfold/tetris"
)

const (
	// ASCII colors.
	Cyan    = "36"
	Blue    = "34"
	Orange  = "38;5;214"
	Yellow  = "33"
	Green   = "32"
	Red     = "31"
	Magenta = "35"

	resetPos = "\033[H" // Reset cursor position to 0,0
	empty    = "  "
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[tetris.Color]string{
	tetris.Aqua:   Cyan,
	tetris.Blue:   Blue,
	tetris.Orange: Orange,
	tetris.Yellow: Yellow,
	tetris.Lime:   Green,
	tetris.Red:    Red,
	tetris.Violet: Magenta,
}

type templateData struct {
	State *tetris.State
}

// Renderer draws states through the embedded layout. It is safe for
// concurrent use.
type Renderer struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template

	mu   sync.Mutex
	last *tetris.State
}

func New(w io.Writer, l *slog.Logger) (*Renderer, error) {
	if l == nil {
		l = slog.Default()
	}
	tmpl, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &Renderer{writer: w, logger: l, template: tmpl}, nil
}

// State draws the playfield. A finished game gets the game over box on top.
func (r *Renderer) State(s tetris.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &s
	r.draw()
	if s.GameEnd {
		r.box("Game Over :)", fmt.Sprintf("score %d", s.Score), "(t) restart   (q) lobby")
	}
}

// Lobby draws the last playfield, or an empty one, with a message box.
func (r *Renderer) Lobby(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw()
	r.box(lines...)
}

func (r *Renderer) draw() {
	fmt.Fprint(r.writer, resetPos)
	if err := r.template.Execute(r.writer, &templateData{State: r.last}); err != nil {
		r.logger.Error("unable to execute template", slog.String("error", err.Error()))
	}
}

// box prints a framed message over the playfield.
func (r *Renderer) box(lines ...string) {
	const width = 38
	fmt.Fprintf(r.writer, "\033[9;5H+%s+", strings.Repeat("-", width))
	row := 10
	for _, l := range lines {
		pad := max(width-len(l), 0)
		fmt.Fprintf(r.writer, "\033[%d;5H|%s%s%s|", row, strings.Repeat(" ", pad/2), l, strings.Repeat(" ", pad-pad/2))
		row++
	}
	fmt.Fprintf(r.writer, "\033[%d;5H+%s+", row, strings.Repeat("-", width))
}

func loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"board": board,
		"panel": panel,
	}

	// we use the console raw so new lines don't automatically transform into carriage return
	// to fix that we add a carriage return to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Terminal Tetris", "\033[1mTerminal Tetris\033[0m")
	return template.New("layout").Funcs(funcMap).Parse(l)
}

func cell(c tetris.Color) string {
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", colorMap[c])
}

// board returns the playfield top row first, as the template prints it.
func board(s *tetris.State) [tetris.Height][tetris.Width]string {
	var rendered [tetris.Height][tetris.Width]string
	for y := range rendered {
		for x := range rendered[y] {
			rendered[y][x] = empty
		}
	}
	if s == nil {
		return rendered
	}

	put := func(b tetris.Block) {
		if b.X < 0 || b.X >= tetris.Width || b.Y < 0 || b.Y >= tetris.Height {
			return
		}
		rendered[tetris.Height-1-b.Y][b.X] = cell(b.Color)
	}
	for _, b := range s.StaticBlocks {
		put(b)
	}
	for _, b := range s.Tetromino.Blocks {
		put(b)
	}
	return rendered
}

// nextPiece renders the preview in a 4x2 box. Pieces spawn in columns 3 to 6
// of the two top rows.
func nextPiece(t tetris.Tetromino) [2]string {
	var rows [2][4]string
	for y := range rows {
		for x := range rows[y] {
			rows[y][x] = empty
		}
	}
	for _, b := range t.Blocks {
		x, y := b.X-3, tetris.Height-1-b.Y
		if x < 0 || x > 3 || y < 0 || y > 1 {
			continue
		}
		rows[y][x] = cell(b.Color)
	}
	return [2]string{strings.Join(rows[0][:], ""), strings.Join(rows[1][:], "")}
}

// panel returns the text printed at the right of every board row.
func panel(s *tetris.State) [tetris.Height]string {
	var p [tetris.Height]string
	if s == nil {
		return p
	}
	next := nextPiece(s.Next)
	p[1] = "  NEXT"
	p[2] = "  " + next[0]
	p[3] = "  " + next[1]
	p[6] = "  LEVEL"
	p[7] = fmt.Sprintf("  %d", s.Level)
	p[9] = "  SCORE"
	p[10] = fmt.Sprintf("  %d", s.Score)
	p[12] = "  HIGHSCORE"
	p[13] = fmt.Sprintf("  %d", s.Highscore)
	if s.GameEnd {
		p[16] = "  GAME OVER"
	}
	return p
}
