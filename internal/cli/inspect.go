package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/strategy"
)

var (
	targetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	recordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	partialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	strategyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTree(root string) *tree.Tree {
	t := tree.New().Root(root)
	t.EnumeratorStyle(branchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	return t
}

// InspectTree renders the resolved models of one target
func InspectTree(target string, resolved []*models.ResolvedModel) *tree.Tree {
	t := newTree(targetStyle.Render(target))
	for _, model := range resolved {
		t.Child(ModelTree(model))
	}
	return t
}

// ModelTree renders one resolved record: the partial type, its fields and
// the strategy of each field
func ModelTree(model *models.ResolvedModel) *tree.Tree {
	title := lipgloss.JoinHorizontal(lipgloss.Top,
		recordStyle.Render(model.OriginalType()),
		" -> ",
		partialStyle.Render(model.PartialType()),
	)
	t := newTree(title)

	if model.IsGeneric() {
		t.Child(infoStyle.Render("type parameters " + model.Record.TypeParams))
	}
	for _, line := range model.Shape.Comments {
		t.Child(infoStyle.Render(line))
	}

	for _, field := range model.Fields {
		if field.Shape.Blank {
			t.Child(fmt.Sprintf("_ %s %s", field.Shape.Type, infoStyle.Render("(not merged)")))
			continue
		}

		node := fmt.Sprintf("%s %s %s", field.Shape.Name, field.Shape.Type,
			strategyStyle.Render(fmt.Sprintf("%s (%s)", field.Strategy.Name, field.Strategy.Kind)))
		if field.Shape.Tag == "" && len(field.Shape.Comments) == 0 {
			t.Child(node)
			continue
		}

		sub := newTree(node)
		if field.Shape.Tag != "" {
			sub.Child(infoStyle.Render("`" + field.Shape.Tag + "`"))
		}
		for _, line := range field.Shape.Comments {
			sub.Child(infoStyle.Render(line))
		}
		t.Child(sub)
	}
	return t
}

// StrategyTable lists the registered strategies and the kinds they accept
func StrategyTable(registry *strategy.Registry) *table.Table {
	kinds := []strategy.Kind{strategy.KindOpaque, strategy.KindSlice, strategy.KindArray, strategy.KindMap, strategy.KindPointer}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(branchStyle).
		Headers("STRATEGY", "ACCEPTS", "DESCRIPTION")

	for _, s := range registry.All() {
		var accepted []string
		for _, kind := range kinds {
			if s.Accepts(kind) {
				accepted = append(accepted, kind.String())
			}
		}
		t.Row(s.Name, strings.Join(accepted, ", "), s.Description)
	}
	return t
}
