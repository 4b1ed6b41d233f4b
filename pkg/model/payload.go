package model

// WithAnswer returns a snapshot whose question identified by code carries
// value as its answer. Every other question, and the options and table rows of
// the touched one, are shared with the receiver. When the code is absent the
// receiver itself is returned together with false.
func (p *Payload) WithAnswer(code string, value any) (*Payload, bool) {
	idx := p.indexOf(code)
	if idx < 0 {
		return p, false
	}

	questions := make([]Question, len(p.Questions))
	copy(questions, p.Questions)
	questions[idx].Answer = value

	next := &Payload{
		Form:       p.Form,
		Questions:  questions,
		Generation: p.Generation,
	}
	return next, true
}

// WithGeneration returns a shallow copy tagged with the provided generation.
func (p *Payload) WithGeneration(generation uint64) *Payload {
	if p == nil {
		return nil
	}
	next := *p
	next.Generation = generation
	return &next
}

// Answers returns a code -> answer map of the current snapshot.
func (p *Payload) Answers() map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p.Questions))
	for _, question := range p.Questions {
		out[question.Code] = question.Answer
	}
	return out
}
