package control

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/rgb"
)

var page = template.Must(template.New("message").Parse(`<!doctype html>
<html><head><title>Message</title></head>
<body>
<p>Showing: {{.Mode}}{{if .Text}} &ldquo;{{.Text}}&rdquo; in {{.Color}}{{end}}</p>
<form method="post" action="/message/form">
<label>Mode
<select name="mode">
<option value="0">off</option>
<option value="1">static</option>
<option value="2" selected>scroll</option>
</select></label>
<label>Message <input name="message" value="{{.Text}}"></label>
<label>R <input name="r" type="number" min="0" max="255" value="255"></label>
<label>G <input name="g" type="number" min="0" max="255" value="0"></label>
<label>B <input name="b" type="number" min="0" max="255" value="0"></label>
<label>Delay <input name="delay" type="number" min="1" value="1"></label>
<button>Send</button>
</form>
</body></html>
`))

func (s *Server) HandleMessagePage(w http.ResponseWriter, r *http.Request) {
	var spec message.Spec
	if s.message != nil {
		spec = message.SpecOf(s.message.Current())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, spec); err != nil {
		s.log.Debug().Err(err).Msg("render message page")
	}
}

// HandleMessageForm takes the browser form: mode 0 is off, 1 static and 2
// scrolling; r, g and b are channel values and delay is ticks per pixel.
func (s *Server) HandleMessageForm(w http.ResponseWriter, r *http.Request) {
	st, err := parseForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.message == nil {
		http.Error(w, "message chain not configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.message.Update(st); err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	http.Redirect(w, r, "/message", http.StatusFound)
}

func parseForm(r *http.Request) (message.State, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %w", message.ErrInvalidSpec, err)
	}
	channel := func(name string) (uint8, error) {
		v := r.PostForm.Get(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", message.ErrInvalidSpec, name, err)
		}
		return uint8(n), nil
	}
	var ch [3]uint8
	for i, name := range []string{"r", "g", "b"} {
		v, err := channel(name)
		if err != nil {
			return nil, err
		}
		ch[i] = v
	}
	c := rgb.New(ch[0], ch[1], ch[2])
	text := r.PostForm.Get("message")

	switch mode := r.PostForm.Get("mode"); mode {
	case "0", "":
		return message.Off{}, nil
	case "1":
		return message.Static{Text: text, Color: c}, nil
	case "2":
		delay := 1
		if v := r.PostForm.Get("delay"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: delay %q", message.ErrInvalidSpec, v)
			}
			delay = n
		}
		return message.Scroll{Text: text, Color: c, Rate: delay}, nil
	default:
		return nil, fmt.Errorf("%w: mode %q", message.ErrInvalidSpec, mode)
	}
}
