package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"snow/internal/logger"
	"snow/internal/state"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// VMs prints the VMs recorded by earlier provisioning runs.
func (s *Snow) VMs() error {
	st := state.LoadState(s.settings.StateFile)
	if len(st.VMs) == 0 {
		logger.Info("No provisioned VMs recorded in %s", s.settings.StateFile)
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "ID", "IP", "PROXMOX HOST", "PROVISIONED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, name := range st.Names() {
		vm := st.VMs[name]
		provisioned := "-"
		if !vm.ProvisionedAt.IsZero() {
			provisioned = vm.ProvisionedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(name, strconv.Itoa(vm.ID), vm.IP, vm.ProxmoxHost, provisioned)
	}
	_, err := fmt.Fprintln(s.out, t.Render())
	return err
}
