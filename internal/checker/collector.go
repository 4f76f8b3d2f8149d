package checker

// Collector gathers outcomes from every worker of a run.
//
// Workers call [Collector.Publish]; the orchestrating caller consumes with
// [Collector.Drain] or [Collector.Outcomes]. Arrival order is completion
// order and carries no meaning.
type Collector struct {
	outcomes chan Outcome
}

// newCollector creates a collector buffered for capacity outcomes, so
// publishing never blocks while the run is within its target count.
func newCollector(capacity int) *Collector {
	return &Collector{outcomes: make(chan Outcome, capacity)}
}

// Publish hands one finished outcome to the collector.
func (c *Collector) Publish(o Outcome) {
	c.outcomes <- o
}

// Outcomes returns the receive side of the collector. The channel is closed
// once every worker has exited.
func (c *Collector) Outcomes() <-chan Outcome {
	return c.outcomes
}

// Drain calls yield for each outcome as it arrives and returns once no
// further outcomes can arrive.
func (c *Collector) Drain(yield func(Outcome)) {
	for o := range c.Outcomes() {
		yield(o)
	}
}

// Collect drains the collector into a slice.
func (c *Collector) Collect() []Outcome {
	out := make([]Outcome, 0, cap(c.outcomes))
	c.Drain(func(o Outcome) {
		out = append(out, o)
	})
	return out
}

// close is called exactly once, after the last producer has exited.
func (c *Collector) close() {
	close(c.outcomes)
}
