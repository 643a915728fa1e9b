package sequence

import "time"

// Keyframe is a level at time At. Ease shapes the segment that starts here:
// "linear" (default), "smooth" or "cubic".
type Keyframe struct {
	At   time.Duration `json:"at" yaml:"at"`
	V    float64       `json:"v" yaml:"v"`
	Ease string        `json:"ease,omitempty" yaml:"ease,omitempty"`
}

// Envelope interpolates a level between keyframes sorted by At.
type Envelope struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

func ease(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		// 6x^5 - 15x^4 + 10x^3
		return x * x * x * (x*(x*6-15) + 10)
	default:
		return x
	}
}

// Eval returns the level at t. Before the first key and after the last the
// nearest key's value holds. An empty envelope is 0.
func (e Envelope) Eval(t time.Duration) float64 {
	n := len(e.Keys)
	switch {
	case n == 0:
		return 0
	case t <= e.Keys[0].At:
		return e.Keys[0].V
	case t >= e.Keys[n-1].At:
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t > b.At {
			continue
		}
		span := b.At - a.At
		if span <= 0 {
			return b.V
		}
		u := ease(a.Ease, clamp01(float64(t-a.At)/float64(span)))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

// End is the time of the last keyframe.
func (e Envelope) End() time.Duration {
	if len(e.Keys) == 0 {
		return 0
	}
	return e.Keys[len(e.Keys)-1].At
}
