package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type model struct {
	jobsTotal  int
	jobsDone   int
	mismatches int
	nodes      uint64
	startTime  time.Time
	recentJobs []string
	updates    <-chan jobUpdate
	finished   bool
}

func initialModel(updates <-chan jobUpdate, jobsTotal int) model {
	return model{
		jobsTotal: jobsTotal,
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

// runDoneMsg is sent once the update channel is closed.
type runDoneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates <-chan jobUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return runDoneMsg{}
		}
		return u
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd()
	case jobUpdate:
		m.jobsDone++
		m.nodes += uint64(msg.Result.Nodes)
		status := "ok"
		switch {
		case msg.Mismatch != nil:
			m.mismatches++
			status = "MISMATCH"
		case !msg.Checked:
			status = "unchecked"
		}
		line := fmt.Sprintf("%s depth %d: %d nodes in %s (%s)",
			msg.Result.Fixture, msg.Result.Depth, msg.Result.Nodes,
			time.Duration(msg.Result.ElapsedNS).Round(time.Millisecond), status)
		m.recentJobs = append([]string{line}, m.recentJobs...)
		if len(m.recentJobs) > 10 {
			m.recentJobs = m.recentJobs[:10]
		}
		return m, waitForUpdate(m.updates)
	case runDoneMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	nodesPerSec := float64(m.nodes) / duration.Seconds()
	if duration.Seconds() < 1 {
		nodesPerSec = 0
	}

	s := fmt.Sprintf("Jobs:        %d/%d\n", m.jobsDone, m.jobsTotal)
	s += fmt.Sprintf("Mismatches:  %d\n", m.mismatches)
	s += fmt.Sprintf("Total Nodes: %d\n", m.nodes)
	s += fmt.Sprintf("Duration:    %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Nodes/Sec:   %.0f\n\n", nodesPerSec)

	s += "Recent Results:\n"
	for _, j := range m.recentJobs {
		s += j + "\n"
	}

	if m.finished {
		s += "\nDone.\n"
	} else {
		s += "\nPress q to quit.\n"
	}
	return s
}
