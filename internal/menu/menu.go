// Package menu implements the interactive text menu.
//
// The menu reads whole lines, so parameters may contain spaces. Every
// failure is printed and control returns to the menu; end of input exits
// like option 8.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/query"
	"github.com/filmdb/filmdb/internal/render"
	"github.com/filmdb/filmdb/internal/source"
)

// Menu choices
const (
	ChoiceLoad = iota + 1
	ChoiceByID
	ChoiceByDirector
	ChoiceByGenre
	ChoiceByDecade
	ChoiceByRating
	ChoiceByDecadeGenre
	ChoiceExit
)

var entries = []string{
	ChoiceLoad - 1:          "Load films",
	ChoiceByID - 1:          "Search by id",
	ChoiceByDirector - 1:    "Search by director",
	ChoiceByGenre - 1:       "Search by genre",
	ChoiceByDecade - 1:      "Search by decade",
	ChoiceByRating - 1:      "Search by rating range",
	ChoiceByDecadeGenre - 1: "Search by decade and genre",
	ChoiceExit - 1:          "Exit",
}

// errExit ends the loop.
var errExit = errors.New("exit")

// Options configure a Menu.
type Options struct {
	In  io.Reader
	Out io.Writer

	Store  *catalog.Store
	Loader *loader.Loader
	// Source is loaded when the user accepts the default at the load prompt
	Source source.Config

	Format  render.Format
	Pattern string

	// Pause waits for enter after each action
	Pause bool
}

// Menu is the interactive loop over one catalog.
type Menu struct {
	in      *bufio.Scanner
	out     io.Writer
	store   *catalog.Store
	loader  *loader.Loader
	engine  *query.Engine
	printer *render.Printer
	source  source.Config
	pause   bool
	style   styles
}

// New builds a Menu from opts.
func New(opts Options) (*Menu, error) {
	if opts.Store == nil || opts.Loader == nil {
		return nil, errhandling.NewValidationError("menu needs a store and a loader", nil)
	}
	printer, err := render.NewPrinter(opts.Out, opts.Format, opts.Pattern)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Menu{
		in:      scanner,
		out:     opts.Out,
		store:   opts.Store,
		loader:  opts.Loader,
		engine:  query.NewEngine(opts.Store),
		printer: printer,
		source:  opts.Source,
		pause:   opts.Pause,
		style:   newStyles(opts.Out),
	}, nil
}

// Run shows the menu until the user exits, input ends or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		m.showMenu()
		line, ok := m.readLine(m.style.prompt.Render("Choose an option: "))
		if !ok {
			return m.in.Err()
		}

		err := m.dispatch(ctx, strings.TrimSpace(line))
		if errors.Is(err, errExit) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return m.in.Err()
		}
		if err != nil {
			m.printError(err)
		}

		if m.pause {
			if _, ok := m.readLine("Press enter to continue..."); !ok {
				return m.in.Err()
			}
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	n, err := strconv.Atoi(choice)
	if err != nil || n < ChoiceLoad || n > ChoiceExit {
		return errhandling.NewValidationError(fmt.Sprintf("invalid option %q, choose 1-%d", choice, ChoiceExit), nil)
	}

	switch n {
	case ChoiceLoad:
		return m.load(ctx)
	case ChoiceByID:
		return m.byID()
	case ChoiceByDirector:
		return m.byDirector()
	case ChoiceByGenre:
		return m.byGenre()
	case ChoiceByDecade:
		return m.byDecade()
	case ChoiceByRating:
		return m.byRating()
	case ChoiceByDecadeGenre:
		return m.byDecadeAndGenre()
	default:
		return errExit
	}
}

func (m *Menu) load(ctx context.Context) error {
	label := "Path to the CSV file"
	if d := m.source.Describe(); d != "" {
		label += " [" + d + "]"
	}
	path, err := m.ask(label)
	if err != nil {
		return err
	}

	cfg := m.source
	if path != "" {
		cfg = source.Config{Kind: source.KindCSV, Path: path, Delimiter: m.source.Delimiter}
	}

	res, err := m.loader.LoadSource(ctx, cfg, m.store)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, m.style.success.Render(fmt.Sprintf(
		"Loaded %d films (%d new, %d replaced, %d skipped); catalog has %d films",
		res.Inserted+res.Replaced, res.Inserted, res.Replaced, res.Skipped, m.store.Len())))
	return nil
}

func (m *Menu) byID() error {
	id, err := m.ask("Film id")
	if err != nil {
		return err
	}
	f, ok := m.engine.ByID(id)
	if !ok {
		return m.printer.NotFound(id)
	}
	return m.printer.Film(f)
}

func (m *Menu) byDirector() error {
	name, err := m.ask("Director")
	if err != nil {
		return err
	}
	return m.printer.Films(render.KindDirector, name, m.engine.ByDirector(name))
}

func (m *Menu) byGenre() error {
	genre, err := m.ask("Genre")
	if err != nil {
		return err
	}
	return m.printer.Films(render.KindGenre, genre, m.engine.ByGenre(genre))
}

func (m *Menu) byDecade() error {
	year, err := m.askDecade()
	if err != nil {
		return err
	}
	return m.printer.Films(render.KindDecade, render.DecadeLabel(year), m.engine.ByDecade(year))
}

func (m *Menu) byRating() error {
	text, err := m.askRequired("Rating range (min-max)")
	if err != nil {
		return err
	}
	min, max, err := query.ParseRatingRange(text)
	if err != nil {
		return err
	}
	return m.printer.Films(render.KindRating, render.RatingCriteria(min, max), m.engine.ByRatingRange(min, max))
}

func (m *Menu) byDecadeAndGenre() error {
	year, err := m.askDecade()
	if err != nil {
		return err
	}
	genre, err := m.ask("Genre")
	if err != nil {
		return err
	}
	return m.printer.Films(render.KindDecadeGenre, render.DecadeGenreCriteria(year, genre), m.engine.ByDecadeAndGenre(year, genre))
}

func (m *Menu) askDecade() (int, error) {
	text, err := m.askRequired("Decade (e.g. 1990s)")
	if err != nil {
		return 0, err
	}
	return query.ParseDecade(text)
}

// ask reads one trimmed line; io.EOF when input has ended.
func (m *Menu) ask(label string) (string, error) {
	line, ok := m.readLine(m.style.prompt.Render(label + ": "))
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

// askRequired is ask for answers that must parse as numbers.
func (m *Menu) askRequired(label string) (string, error) {
	v, err := m.ask(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errhandling.NewValidationError(strings.ToLower(label)+" cannot be empty", nil)
	}
	return v, nil
}

func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		fmt.Fprintln(m.out)
		return "", false
	}
	return m.in.Text(), true
}

func (m *Menu) showMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.style.title.Render("filmdb"))
	for i, entry := range entries {
		fmt.Fprintf(m.out, "%s %s\n", m.style.option.Render(strconv.Itoa(i+1)+"."), entry)
	}
}

func (m *Menu) printError(err error) {
	fmt.Fprintln(m.out, m.style.err.Render("Error: "+err.Error()))
}
