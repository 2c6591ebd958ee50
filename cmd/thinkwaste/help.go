package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/report"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("think-waste")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(fmt.Sprintf("Report waste, earn %d tokens per report.", report.RewardPoints))

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"thinkwaste", "Open the terminal UI"},
		{"thinkwaste login", "Connect your wallet"},
		{"thinkwaste logout", "Disconnect and clear the session"},
		{"thinkwaste status", "Show account, balance and unread count"},
		{"thinkwaste version", "Show version"},
		{"thinkwaste help", "Show this help"},
	}

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(w, "\n  Config: %s\n\n", descStyle.Render(model.DefaultConfigPath()))
}
