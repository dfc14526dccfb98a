package metrics

func (m *Metrics) IncrementTicketCreated() {
	m.safeExecute("IncrementTicketCreated", func() {
		m.TicketCreatedTotal.Inc()
	})
}

// RecordSprintAdvanced counts one rollover and the finished tickets it removed.
func (m *Metrics) RecordSprintAdvanced(purged int64) {
	m.safeExecute("RecordSprintAdvanced", func() {
		m.SprintsAdvancedTotal.Inc()
		m.TicketsPurgedTotal.Add(float64(purged))
	})
}

func (m *Metrics) AddColumnSizesReconciled(n int64) {
	m.safeExecute("AddColumnSizesReconciled", func() {
		m.ColumnSizesReconciled.Add(float64(n))
	})
}

func (m *Metrics) SetProjectsTotal(count int64) {
	m.safeExecute("SetProjectsTotal", func() {
		m.ProjectsTotal.Set(float64(count))
	})
}

func (m *Metrics) SetTicketsTotal(count int64) {
	m.safeExecute("SetTicketsTotal", func() {
		m.TicketsTotal.Set(float64(count))
	})
}
