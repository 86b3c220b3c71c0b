package view

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/catalog"
	"github.com/walweb/camisolas/internal/inventory"
)

// MovementModel records a single stock movement through a form.
type MovementModel struct {
	CommonModel
	deps Deps

	variants []*catalog.Variant
	form     *huh.Form
	input    *movementInput
	saving   bool
	status   string
	err      error
}

type movementInput struct {
	variant    uuid.UUID
	size       inventory.Size
	kind       inventory.Kind
	quantity   string
	date       string
	note       string
	price      string
	returnDate string
}

func NewMovementModel(deps Deps) MovementModel {
	return MovementModel{deps: deps}
}

func (m MovementModel) Title() string { return "Record Movement" }

func (m MovementModel) ShortHelp() string {
	if m.form == nil {
		return "Esc: back | n: new movement"
	}

	return "Enter/Tab: navigate form | Esc: back"
}

func (m MovementModel) Init() tea.Cmd {
	deps := m.deps

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		variants, err := deps.Catalog.List(ctx)

		return variantsMsg{variants: variants, err: err}
	}
}

func (m MovementModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case variantsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		if len(msg.variants) == 0 {
			m.status = "The catalog is empty. Add variants first."
			return m, nil
		}

		m.variants = msg.variants

		return m.newForm()

	case actionMsg:
		m.saving = false
		m.status, m.err = msg.status, msg.err
		m.form = nil

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.form == nil {
			if msg.String() == "n" && len(m.variants) > 0 && !m.saving {
				return m.newForm()
			}

			return m, nil
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	save := m.saveCmd()
	m.form = nil
	m.saving = true
	m.status = "Saving..."

	return m, save
}

func (m MovementModel) newForm() (tea.Model, tea.Cmd) {
	in := &movementInput{
		variant: m.variants[0].ID,
		size:    inventory.SizeM,
		kind:    inventory.KindIn,
	}
	m.input = in
	m.err = nil
	m.status = ""

	variantOpts := make([]huh.Option[uuid.UUID], len(m.variants))
	for i, v := range m.variants {
		variantOpts[i] = huh.NewOption(fmt.Sprintf("%s - %s", v.Team, v.Color), v.ID)
	}

	sizeOpts := make([]huh.Option[inventory.Size], len(inventory.Sizes))
	for i, s := range inventory.Sizes {
		sizeOpts[i] = huh.NewOption(string(s), s)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[uuid.UUID]().Title("Jersey").Options(variantOpts...).Value(&in.variant),
			huh.NewSelect[inventory.Size]().Title("Size").Options(sizeOpts...).Value(&in.size),
			huh.NewSelect[inventory.Kind]().Title("Movement").Options(
				huh.NewOption("Stock in", inventory.KindIn),
				huh.NewOption("Stock out", inventory.KindOut),
				huh.NewOption("Lend as sample", inventory.KindToSample),
				huh.NewOption("Sale", inventory.KindSale),
			).Value(&in.kind),
			huh.NewInput().Title("Quantity").Value(&in.quantity).Validate(positiveInt),
		),
		huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD, blank for today").Value(&in.date).Validate(func(s string) error {
				_, err := ParseDate(s)
				return err
			}),
			huh.NewInput().Title("Note").Value(&in.note),
			huh.NewInput().Title("Sale price (optional)").Value(&in.price).Validate(optionalPrice),
			huh.NewInput().Title("Sample return date (optional)").Placeholder("YYYY-MM-DD").Value(&in.returnDate).Validate(func(s string) error {
				_, err := ParseDate(s)
				return err
			}),
		),
	).WithWidth(50).WithShowHelp(false)

	return m, m.form.Init()
}

func optionalPrice(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return fmt.Errorf("enter a price like 150.00")
	}

	return nil
}

// recordParams converts validated form input into ledger parameters.
func (in movementInput) recordParams() inventory.RecordParams {
	qty, _ := strconv.Atoi(strings.TrimSpace(in.quantity))
	date, _ := ParseDate(in.date)

	p := inventory.RecordParams{
		VariantID: in.variant,
		Size:      in.size,
		Kind:      in.kind,
		Quantity:  qty,
		Date:      date,
		Note:      in.note,
	}

	if s := strings.TrimSpace(in.price); s != "" {
		if d, err := decimal.NewFromString(s); err == nil {
			p.SalePrice = &d
		}
	}

	if rd, err := ParseDate(in.returnDate); err == nil && !rd.IsZero() {
		p.ReturnDate = &rd
	}

	return p
}

func (m MovementModel) saveCmd() tea.Cmd {
	deps := m.deps
	p := m.input.recordParams()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		mov, err := deps.Ledger.RecordMovement(ctx, deps.Actor, p)
		if err != nil {
			return actionMsg{err: err}
		}

		return actionMsg{status: fmt.Sprintf("Recorded %s of %d x %s %s (%s).", mov.Kind, mov.Quantity, mov.Team, mov.Color, mov.Size)}
	}
}

func (m MovementModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Record a movement")

	body := ""
	if m.form != nil {
		body = m.form.View()
	}

	if line := statusLine(m.status, m.err); line != "" {
		body = line + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(header + "\n\n" + body)
}

type variantsMsg struct {
	variants []*catalog.Variant
	err      error
}
