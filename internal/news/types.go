package news

// Item is one market news shock. Bias and DecayTicks feed straight into the
// price simulator's event injection; Headline is for the tape.
type Item struct {
	ID string
	// Time is the publication timestamp in unix seconds.
	Time     int64
	Headline string
	// Bias is the temporary walk override in [-1.5, 1.5].
	Bias float64
	// DecayTicks is how many price ticks the override lasts.
	DecayTicks int
	// Severity ranks the shock for display; higher is louder.
	Severity int
}
