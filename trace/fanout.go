package trace

// fanout forwards every event and trace to each attached sink in order.
type fanout struct {
	sinks []Sink
}

// Fanout combines sinks into one. Nil sinks are dropped; zero or one
// remaining sink short-circuits to avoid a needless layer.
func Fanout(sinks ...Sink) Sink {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &fanout{sinks: kept}
}

func (f *fanout) LogEvent(ev Event) {
	for _, s := range f.sinks {
		s.LogEvent(ev)
	}
}

func (f *fanout) LogCompleteTrace(tr Trace) {
	for _, s := range f.sinks {
		s.LogCompleteTrace(tr)
	}
}
