package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/optimize"
	"github.com/jmylchreest/hueforge/internal/reward"
	"github.com/jmylchreest/hueforge/internal/roles"
)

const swatchWidth = 6

// showPreview reports whether colour swatches should be drawn on w.
func (a *app) showPreview(w io.Writer) bool {
	switch a.preview {
	case previewAlways:
		return true
	case previewNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// paletteTable lists each colour with its conversions and role.
func paletteTable(p *colour.Palette, a roles.Assignment, preview bool) *Table {
	headers := []string{"#", "Hex", "RGB", "HSL", "Lab", "Role"}
	if preview {
		headers = append([]string{"#", "Swatch"}, headers[1:]...)
	}
	t := NewTable(headers)
	t.AlignRight(0)

	for i, c := range p.Colours {
		row := []string{
			strconv.Itoa(i + 1),
			c.HexUpper(),
			fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B),
			formatHSL(c),
			formatLab(colour.RGBToLab(c)),
			string(a.RoleOf(i)),
		}
		if preview {
			row = append([]string{row[0], colour.ColourPreview(c, swatchWidth)}, row[1:]...)
		}
		t.AddRow(row...)
	}
	return t
}

// componentsTable lists each weighted component and its share of the total.
// Unweighted components are shown with a "-" weight.
func componentsTable(comps reward.Components, w reward.Weights, total float64) *Table {
	t := NewTable([]string{"Key", "Component", "Weight", "Value", "Contribution"})
	for _, col := range []int{2, 3, 4} {
		t.AlignRight(col)
	}
	for _, key := range reward.AllKeys {
		v, ok := comps[key]
		if !ok {
			continue
		}
		weight, contrib := "-", "-"
		if wt, ok := w[key]; ok {
			weight = formatFloat(wt)
			contrib = formatFloat(wt * v)
		}
		t.AddRow(key, reward.ComponentName(key), weight, formatFloat(v), contrib)
	}
	t.AddRow("", "total", "", "", formatFloat(total))
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatHSL(c colour.RGB) string {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()
	return fmt.Sprintf("%.0f,%.0f%%,%.0f%%", h, s*100, l*100)
}

func formatLab(l colour.Lab) string {
	return fmt.Sprintf("%.1f,%.1f,%.1f", l.L, l.A, l.B)
}

// colourJSON is one palette entry in JSON output.
type colourJSON struct {
	Hex  string     `json:"hex"`
	RGB  colour.RGB `json:"rgb"`
	Lab  colour.Lab `json:"lab"`
	Role roles.Role `json:"role"`
}

// evaluationJSON is the JSON form of a scored palette.
type evaluationJSON struct {
	Score      float64            `json:"score"`
	Palette    []colourJSON       `json:"palette"`
	Roles      roles.Assignment   `json:"roles"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
}

// resultJSON is the JSON form of an optimisation run.
type resultJSON struct {
	evaluationJSON
	Strategy     string    `json:"strategy"`
	InitialScore float64   `json:"initial_score"`
	Improvement  float64   `json:"improvement"`
	Steps        int       `json:"steps"`
	Episodes     int       `json:"episodes"`
	History      []float64 `json:"history,omitempty"`
	Interrupted  bool      `json:"interrupted,omitempty"`
}

func paletteJSON(p *colour.Palette, a roles.Assignment) []colourJSON {
	out := make([]colourJSON, len(p.Colours))
	for i, c := range p.Colours {
		out[i] = colourJSON{
			Hex:  c.HexUpper(),
			RGB:  c,
			Lab:  colour.RGBToLab(c),
			Role: a.RoleOf(i),
		}
	}
	return out
}

func newEvaluationJSON(ev *reward.Evaluation, w reward.Weights) evaluationJSON {
	return evaluationJSON{
		Score:      ev.Score,
		Palette:    paletteJSON(ev.Palette, ev.Roles),
		Roles:      ev.Roles,
		Components: ev.Components,
		Weights:    w,
	}
}

func newResultJSON(r *optimize.Result, w reward.Weights, interrupted bool) resultJSON {
	return resultJSON{
		evaluationJSON: evaluationJSON{
			Score:      r.Score,
			Palette:    paletteJSON(r.Palette, r.Roles),
			Roles:      r.Roles,
			Components: r.Components,
			Weights:    w,
		},
		Strategy:     r.Strategy,
		InitialScore: r.InitialScore,
		Improvement:  r.Improvement(),
		Steps:        r.Steps,
		Episodes:     r.Episodes,
		History:      r.History,
		Interrupted:  interrupted,
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeEvaluation prints a scored palette in the selected format.
func (a *app) writeEvaluation(w io.Writer, ev *reward.Evaluation, weights reward.Weights) error {
	if a.format == formatJSON {
		return writeJSON(w, newEvaluationJSON(ev, weights))
	}
	fmt.Fprint(w, paletteTable(ev.Palette, ev.Roles, a.showPreview(w)).Render())
	fmt.Fprintln(w)
	fmt.Fprint(w, componentsTable(ev.Components, weights, ev.Score).Render())
	return nil
}
