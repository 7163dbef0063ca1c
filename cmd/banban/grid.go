package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
)

const cellWidth = 7

var (
	gridHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("15"))

	standStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("10"))

	hitStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("9"))

	missingStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("8"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))
)

// renderGrid draws the 13x13 rank grid. Cells above the diagonal are suited
// hands, cells below are offsuit, the diagonal holds pairs. Each cell shows
// the action letter and the EV.
func renderGrid(chart *solver.Chart) string {
	ranks := deck.Ranks()

	var b strings.Builder
	summary := chart.Summary()
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d hands, %d stand, %d hit, mean EV %+.4f",
		summary.Hands, summary.Stands, summary.Hits, summary.MeanEV)))
	b.WriteString("\n")

	header := []string{gridHeaderStyle.Render("")}
	for _, r := range ranks {
		header = append(header, gridHeaderStyle.Render(r.String()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for i, row := range ranks {
		cells := []string{gridHeaderStyle.Render(row.String())}
		for j, col := range ranks {
			a, c := gridCards(row, col, i < j)
			sol, ok := chart.Lookup(a, c)
			cells = append(cells, renderCell(sol, ok))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

// gridCards picks a representative pair of cards for a grid cell. Offsuit
// hands put the lower rank in spades and the higher in hearts.
func gridCards(a, b deck.Rank, suited bool) (deck.Card, deck.Card) {
	if a > b {
		a, b = b, a
	}
	if suited {
		return deck.NewCard(a, deck.Spades), deck.NewCard(b, deck.Spades)
	}
	return deck.NewCard(a, deck.Spades), deck.NewCard(b, deck.Hearts)
}

func renderCell(sol solver.HandSolution, ok bool) string {
	if !ok {
		return missingStyle.Render("-")
	}
	text := fmt.Sprintf("%s%+.2f", strings.ToUpper(string(sol.Action)[:1]), sol.ExpectedValue)
	if sol.Action == solver.ActionHit {
		return hitStyle.Render(text)
	}
	return standStyle.Render(text)
}
