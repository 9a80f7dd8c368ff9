package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"topglass/internal/domain/quote"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#0369A1")).Padding(0, 1).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Width(28)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")).Bold(true).Width(28)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#0EA5E9")).Padding(1, 2)
	toastStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

var stepNames = []string{"Véhicule", "Service", "Dégâts", "Coordonnées", "Confirmation"}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TopGlass · Demande de devis"))
	b.WriteString("\n")
	b.WriteString(a.renderStepper())
	b.WriteString("\n\n")

	if t := a.renderToast(); t != "" {
		b.WriteString(t)
		b.WriteString("\n\n")
	}

	phase := a.machine.Phase()
	switch {
	case a.submitting || phase == quote.PhaseSubmitting:
		b.WriteString(a.spinner.View() + " Envoi de votre demande...")
	case phase == quote.PhaseStep5:
		b.WriteString(a.renderConfirmation())
	case phase == quote.PhaseVehicleConfirmation:
		plate := a.machine.Snapshot().RegistrationPlateRaw
		body := accentStyle.Render("Confirmez votre véhicule "+plate) + "\n\n" + a.renderFields()
		b.WriteString(modalStyle.Render(body))
	default:
		b.WriteString(a.renderFields())
	}

	if a.status != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(a.status))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(a.helpLine(phase)))
	return b.String()
}

func (a *App) renderStepper() string {
	active := int(a.machine.Step()) - 1
	parts := make([]string, len(stepNames))
	for i, name := range stepNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		switch {
		case i == active:
			parts[i] = accentStyle.Render(label)
		case i < active:
			parts[i] = successStyle.Render(label)
		default:
			parts[i] = mutedStyle.Render(label)
		}
	}
	return strings.Join(parts, mutedStyle.Render(" › "))
}

func (a *App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	style := toastStyle.BorderForeground(lipgloss.Color("#4CAF50"))
	title := successStyle.Render(a.toast.Title)
	if a.toast.Level == quote.LevelError {
		style = toastStyle.BorderForeground(lipgloss.Color("#FF6B6B"))
		title = errorStyle.Bold(true).Render(a.toast.Title)
	}
	return style.Render(title + "\n" + a.toast.Detail)
}

func (a *App) renderFields() string {
	r := a.machine.Snapshot()
	var errs quote.FieldErrors
	if a.showErrors {
		errs = a.machine.Errors()
	}
	lines := make([]string, 0, len(a.fields)*2)
	for i, f := range a.fields {
		focused := i == a.focus
		label := labelStyle.Render("  " + f.label)
		if focused {
			label = focusStyle.Render("› " + f.label)
		}
		lines = append(lines, label+a.renderValue(f, r, focused))
		if msg, ok := errs[f.errKey]; ok && f.errKey != "" {
			lines = append(lines, strings.Repeat(" ", 30)+errorStyle.Render(msg))
		}
		if focused && f.hint != "" {
			lines = append(lines, strings.Repeat(" ", 30)+mutedStyle.Render(f.hint))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderValue(f field, r quote.QuoteRequest, focused bool) string {
	switch f.kind {
	case kindText:
		if focused {
			return a.input.View()
		}
		return f.value(r)
	case kindChoice:
		if len(f.options) == 0 {
			return mutedStyle.Render("—")
		}
		i := f.index(r)
		if i < 0 {
			return mutedStyle.Render("‹ choisir ›")
		}
		return "‹ " + f.options[i].label + " ›"
	case kindMulti:
		selected := f.selected(r)
		parts := make([]string, len(f.options))
		for i, o := range f.options {
			mark := "[ ]"
			if slices.Contains(selected, o.value) {
				mark = "[x]"
			}
			item := mark + " " + o.label
			if focused && i == a.cursor {
				item = accentStyle.Render(item)
			}
			parts[i] = item
		}
		return strings.Join(parts, "  ")
	case kindToggle:
		if f.value(r) == "true" {
			return "[x] oui"
		}
		return "[ ] non"
	case kindFile:
		current := f.value(r)
		if focused {
			return a.input.View() + "  " + mutedStyle.Render(current)
		}
		return current
	}
	return ""
}

func (a *App) renderConfirmation() string {
	var b strings.Builder
	b.WriteString(successStyle.Render("Merci ! Votre demande a bien été transmise."))
	b.WriteString("\n")
	if receipt, ok := a.machine.Receipt(); ok {
		b.WriteString(mutedStyle.Render("Référence " + receipt.LeadID))
		if receipt.FailedUploads > 0 {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("%d fichier(s) n'ont pas pu être envoyés.", receipt.FailedUploads)))
		}
	}
	for _, s := range quote.Summary(a.machine.Snapshot()) {
		b.WriteString("\n\n")
		b.WriteString(accentStyle.Render(s.Title))
		for _, row := range s.Rows {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("  " + row.Label))
			b.WriteString(row.Value)
		}
	}
	return b.String()
}

func (a *App) helpLine(phase quote.Phase) string {
	switch phase {
	case quote.PhaseStep1:
		return "entrée: confirmer le véhicule · ctrl+c: quitter"
	case quote.PhaseVehicleConfirmation:
		return "↑/↓: champ · ←/→: choix · entrée: valider · échap: modifier l'immatriculation"
	case quote.PhaseStep4:
		return "↑/↓: champ · ←/→: choix · espace: cocher · entrée: envoyer · échap: retour"
	case quote.PhaseStep5:
		return "entrée: nouvelle demande · q: quitter"
	case quote.PhaseSubmitting:
		return "ctrl+c: quitter"
	}
	return "↑/↓: champ · ←/→: choix · espace: cocher · entrée: suivant · échap: retour"
}
